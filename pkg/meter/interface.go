package meter

// Channel selects one of the meter's three differential voltage measurements.
type Channel uint8

const (
	ChannelReference Channel = iota // Across the whole divider, supply to ground
	ChannelKnown                    // Across the known-resistance network
	ChannelUnknown                  // Across the resistor under test
)

// VoltageSource reads differential voltages from the measurement channels.
// Hardware implements this with the ADS1115 front end; tests and the mock
// device use Circuit.
type VoltageSource interface {
	// ReadVolts returns the voltage across ch at the active gain. Reads are
	// synchronous and treated as reliable once the front end is up.
	ReadVolts(ch Channel) float32
	// SetGain switches the front-end gain for subsequent reads.
	SetGain(g Gain)
}

// DigitalOutput drives a single tap enable line.
type DigitalOutput interface {
	Set(high bool)
}

// Display receives the refresh output together with the state that produced
// it. ShowResistance carries a presentable running average in
// State.AverageOhms; presentation (lead offset, high-end correction,
// formatting) is the implementation's business. ShowOverRange carries the
// state whose average left the range; the meter clears the average right
// after the call.
type Display interface {
	ShowResistance(st State)
	ShowOverRange(st State)
}

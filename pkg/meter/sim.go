package meter

import "github.com/chewxy/math32"

var (
	_ VoltageSource = (*Circuit)(nil)
	_ DigitalOutput = (*simSwitch)(nil)
)

// Circuit simulates the analog front end: a supply across the known network
// in series with the resistor under test, read through a 16-bit converter
// with a gain-dependent full scale. It implements VoltageSource and hands
// out the tap enable lines, so a Meter runs against it unmodified.
type Circuit struct {
	Supply  float32        // Divider supply (V)
	Unknown float32        // Resistor under test (Ohm); +Inf simulates lifted probes
	Noise   func() float32 // Optional additive read noise (V)

	baseline float32
	taps     []float32
	on       []bool
	gain     Gain
}

// NewCircuit builds a circuit with the given supply, baseline and tap
// resistances. Unknown starts at zero (shorted probes); set it before
// sampling.
func NewCircuit(supply, baselineOhms float32, tapOhms []float32) *Circuit {
	return &Circuit{
		Supply:   supply,
		baseline: baselineOhms,
		taps:     append([]float32(nil), tapOhms...),
		on:       make([]bool, len(tapOhms)),
	}
}

// Taps returns the bank taps wired to this circuit's enable lines, in
// network order.
func (c *Circuit) Taps() []Tap {
	taps := make([]Tap, len(c.taps))
	for i := range c.taps {
		taps[i] = Tap{Ohms: c.taps[i], Output: &simSwitch{c: c, idx: i}}
	}
	return taps
}

// KnownOhms returns the network resistance with the currently enabled taps.
func (c *Circuit) KnownOhms() float32 {
	sum := 1 / c.baseline
	for i, on := range c.on {
		if on {
			sum += 1 / c.taps[i]
		}
	}
	return 1 / sum
}

// Gain returns the currently applied front-end gain.
func (c *Circuit) Gain() Gain {
	return c.gain
}

// SetGain implements VoltageSource.
func (c *Circuit) SetGain(g Gain) {
	c.gain = g
}

// ReadVolts implements VoltageSource: ideal divider voltages, optional
// noise, then the converter transfer function.
func (c *Circuit) ReadVolts(ch Channel) float32 {
	var v float32
	if math32.IsInf(c.Unknown, 1) {
		// Probes lifted: no current flows, the full supply sits across the
		// open gap.
		switch ch {
		case ChannelReference, ChannelUnknown:
			v = c.Supply
		case ChannelKnown:
			v = 0
		}
	} else {
		rk := c.KnownOhms()
		total := rk + c.Unknown
		switch ch {
		case ChannelReference:
			v = c.Supply
		case ChannelKnown:
			v = c.Supply * rk / total
		case ChannelUnknown:
			v = c.Supply * c.Unknown / total
		}
	}
	if c.Noise != nil {
		v += c.Noise()
	}
	return c.quantize(v)
}

// quantize folds a voltage through the converter: clip at the gain's full
// scale, 16-bit two's-complement code, back to volts.
func (c *Circuit) quantize(v float32) float32 {
	fs := c.gain.FullScale()
	if v >= fs {
		v = fs
	} else if v <= -fs {
		v = -fs
	}
	code := int32(v / fs * 32768)
	if code > 32767 {
		code = 32767
	}
	return float32(code) / 32768 * fs
}

type simSwitch struct {
	c   *Circuit
	idx int
}

func (s *simSwitch) Set(high bool) {
	s.c.on[s.idx] = high
}

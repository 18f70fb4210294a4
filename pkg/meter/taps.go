package meter

// Tap is one switchable resistor of the known network with its enable line.
type Tap struct {
	Ohms   float32
	Output DigitalOutput
}

// TapBank manages the known-resistance network: a fixed baseline resistor
// with zero or more taps switched in parallel. Taps enable strictly in table
// order (smallest resistance first) and disable strictly in reverse, so the
// hardware never sees an out-of-order switching pattern.
type TapBank struct {
	baseline float32
	taps     []Tap
	enabled  int // taps[:enabled] are on
}

// NewTapBank creates a bank over the always-connected baseline resistance
// and the switchable taps, ordered smallest resistance first.
func NewTapBank(baselineOhms float32, taps []Tap) *TapBank {
	return &TapBank{baseline: baselineOhms, taps: taps}
}

// Reset disables all enabled taps, newest first, restoring the
// baseline-only network.
func (b *TapBank) Reset() {
	for i := b.enabled - 1; i >= 0; i-- {
		b.taps[i].Output.Set(false)
	}
	b.enabled = 0
}

// EnableNext switches in the next tap in table order. Returns false when
// every tap is already enabled.
func (b *TapBank) EnableNext() bool {
	if b.enabled >= len(b.taps) {
		return false
	}
	b.taps[b.enabled].Output.Set(true)
	b.enabled++
	return true
}

// Enabled returns how many taps are currently switched in.
func (b *TapBank) Enabled() int {
	return b.enabled
}

// Size returns the number of taps in the bank.
func (b *TapBank) Size() int {
	return len(b.taps)
}

// Resistance returns the parallel combination of the baseline and every
// enabled tap. No allocation; this runs on the sample path.
func (b *TapBank) Resistance() float32 {
	sum := 1 / b.baseline
	for _, t := range b.taps[:b.enabled] {
		sum += 1 / t.Ohms
	}
	return 1 / sum
}

// Parallel returns the equivalent resistance of resistors in parallel.
func Parallel(ohms ...float32) float32 {
	var sum float32
	for _, r := range ohms {
		sum += 1 / r
	}
	return 1 / sum
}

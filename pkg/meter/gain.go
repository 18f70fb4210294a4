package meter

// Gain is a front-end programmable gain setting. The value indexes the tier
// table and maps one-to-one onto the ADC's PGA codes.
type Gain uint8

const (
	GainTwoThirds Gain = iota // ±6.144 V full scale, power-on setting
	GainOne                   // ±4.096 V
	GainTwo                   // ±2.048 V
	GainFour                  // ±1.024 V
	GainEight                 // ±0.512 V
	GainSixteen               // ±0.256 V
)

// DefaultGain is the widest-window setting the meter returns to after every
// precise read.
const DefaultGain = GainTwoThirds

var gainNames = [...]string{"2/3x", "1x", "2x", "4x", "8x", "16x"}

// Full-scale voltages are a hardware property of each gain setting and do
// not follow the configurable selection windows.
var gainFullScale = [...]float32{6.144, 4.096, 2.048, 1.024, 0.512, 0.256}

func (g Gain) String() string {
	if int(g) >= len(gainNames) {
		return "?"
	}
	return gainNames[g]
}

// FullScale returns the conversion full-scale voltage for the setting.
func (g Gain) FullScale() float32 {
	if int(g) >= len(gainFullScale) {
		return gainFullScale[0]
	}
	return gainFullScale[g]
}

// GainTier pairs a gain setting with the voltage window it serves. Bounds
// are exclusive on both ends.
type GainTier struct {
	Gain Gain
	Min  float32
	Max  float32
}

// DefaultTiers returns the shipped tier table, ordered widest window first.
// The 4x lower bound is asymmetric on purpose and must stay in sync with the
// host configuration defaults.
func DefaultTiers() []GainTier {
	return []GainTier{
		{Gain: GainTwoThirds, Min: -6.144, Max: 6.144},
		{Gain: GainOne, Min: -4.096, Max: 4.096},
		{Gain: GainTwo, Min: -2.048, Max: 2.048},
		{Gain: GainFour, Min: -0.124, Max: 1.024},
		{Gain: GainEight, Min: -0.512, Max: 0.512},
		{Gain: GainSixteen, Min: -0.256, Max: 0.256},
	}
}

// SelectTier picks the narrowest tier whose window contains volts, scanning
// from the end of the table so ties break toward higher gain. A voltage
// outside every window falls back to the widest tier. The table must be
// non-empty and ordered widest first.
func SelectTier(tiers []GainTier, volts float32) GainTier {
	for i := len(tiers) - 1; i >= 0; i-- {
		if volts > tiers[i].Min && volts < tiers[i].Max {
			return tiers[i]
		}
	}
	return tiers[0]
}

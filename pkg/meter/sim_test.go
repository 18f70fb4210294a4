package meter

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCircuit() *Circuit {
	return NewCircuit(5.0, 1_000_000, []float32{220, 1000, 9997, 100078})
}

func TestCircuit_DividerVoltages(t *testing.T) {
	c := newTestCircuit()
	c.Unknown = 4700

	// Baseline network dominates the divider until a tap comes in.
	assert.InDelta(t, 5.0, c.ReadVolts(ChannelReference), 0.001)
	assert.InDelta(t, 4.9766, c.ReadVolts(ChannelKnown), 0.001)
	assert.InDelta(t, 0.0234, c.ReadVolts(ChannelUnknown), 0.001)

	taps := c.Taps()
	require.Len(t, taps, 4)
	taps[0].Output.Set(true)

	assert.InDelta(t, 219.9516, c.KnownOhms(), 0.001)
	assert.InDelta(t, 0.2235, c.ReadVolts(ChannelKnown), 0.001)
	assert.InDelta(t, 4.7765, c.ReadVolts(ChannelUnknown), 0.001)
}

func TestCircuit_QuantizationClipsAtFullScale(t *testing.T) {
	c := newTestCircuit()
	c.Unknown = 4700
	c.SetGain(GainSixteen)

	// 4.78 V against a ±0.256 V window pins at the positive rail.
	v := c.ReadVolts(ChannelUnknown)
	assert.Less(t, v, float32(0.256))
	assert.InDelta(t, 0.256, v, 0.0001)
}

func TestCircuit_GainRoundTrip(t *testing.T) {
	c := newTestCircuit()

	assert.Equal(t, GainTwoThirds, c.Gain())
	c.SetGain(GainFour)
	assert.Equal(t, GainFour, c.Gain())
}

func TestCircuit_OpenProbes(t *testing.T) {
	c := newTestCircuit()
	c.Unknown = math32.Inf(1)

	assert.InDelta(t, 5.0, c.ReadVolts(ChannelReference), 0.001)
	assert.Equal(t, float32(0), c.ReadVolts(ChannelKnown))
	assert.InDelta(t, 5.0, c.ReadVolts(ChannelUnknown), 0.001)
}

func TestCircuit_NoiseApplied(t *testing.T) {
	c := newTestCircuit()
	c.Unknown = 4700
	clean := c.ReadVolts(ChannelKnown)

	c.Noise = func() float32 { return 0.1 }
	noisy := c.ReadVolts(ChannelKnown)

	assert.InDelta(t, 0.1, noisy-clean, 0.001)
}

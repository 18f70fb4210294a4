package ads1115

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*fakeBus)(nil)

// fakeBus is an in-memory register file standing in for the converter.
type fakeBus struct {
	regs         map[byte]uint16
	configWrites []uint16
	busy         bool // OS bit reads low while set
	dropWrites   bool // model a device that never latches writes
	err          error
}

func newFakeBus() *fakeBus {
	return &fakeBus{regs: make(map[byte]uint16)}
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.err != nil {
		return b.err
	}

	// Register write: pointer byte then data high, low.
	if len(w) == 3 && len(r) == 0 {
		val := uint16(w[1])<<8 | uint16(w[2])
		if w[0] == regConfig {
			b.configWrites = append(b.configWrites, val)
		}
		if !b.dropWrites {
			b.regs[w[0]] = val
		}
		return nil
	}

	// Register read: pointer byte then two data bytes back.
	if len(w) == 1 && len(r) == 2 {
		val := b.regs[w[0]]
		if w[0] == regConfig {
			if b.busy {
				val &^= configOsSingle
			} else {
				val |= configOsSingle
			}
		}
		r[0] = byte(val >> 8)
		r[1] = byte(val)
		return nil
	}

	return nil
}

func TestNew(t *testing.T) {
	bus := newFakeBus()
	d := New(bus)

	assert.Equal(t, uint16(Address), d.Address)
}

func TestDevice_Init(t *testing.T) {
	bus := newFakeBus()
	d := New(bus)
	d.Configure()

	err := d.Init()

	require.NoError(t, err)
	require.Len(t, bus.configWrites, 1)
	// Idle configuration: single-shot mode, 860 SPS, comparator off, no OS bit.
	assert.Equal(t, uint16(0x01E3), bus.configWrites[0])
}

func TestDevice_Init_ReadbackMismatch(t *testing.T) {
	bus := newFakeBus()
	bus.dropWrites = true
	d := New(bus)
	d.Configure()

	err := d.Init()

	assert.ErrorIs(t, err, ErrProtocol)
}

func TestDevice_Init_BusError(t *testing.T) {
	bus := newFakeBus()
	bus.err = errors.New("nak")
	d := New(bus)
	d.Configure()

	err := d.Init()

	assert.ErrorIs(t, err, bus.err)
}

func TestDevice_ReadRaw(t *testing.T) {
	tests := []struct {
		name string
		code uint16
		want int16
	}{
		{name: "positive", code: 0x1234, want: 0x1234},
		{name: "zero", code: 0x0000, want: 0},
		{name: "negative full scale", code: 0x8000, want: -32768},
		{name: "positive full scale", code: 0x7FFF, want: 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus()
			bus.regs[regConversion] = tt.code
			d := New(bus)
			d.Configure()

			raw, err := d.ReadRaw(MuxDiff01)

			require.NoError(t, err)
			assert.Equal(t, tt.want, raw)
		})
	}
}

func TestDevice_ReadRaw_ConfigWord(t *testing.T) {
	bus := newFakeBus()
	d := New(bus)
	d.Configure()

	_, err := d.ReadRaw(MuxDiff23)

	require.NoError(t, err)
	require.Len(t, bus.configWrites, 1)
	// OS bit set, AIN2-AIN3 mux, default 2/3x PGA.
	assert.Equal(t, uint16(0xB1E3), bus.configWrites[0])
}

func TestDevice_ReadRaw_Timeout(t *testing.T) {
	bus := newFakeBus()
	bus.busy = true
	d := New(bus)
	d.Configure(Config{
		PollInterval:   100 * time.Microsecond,
		ConvertTimeout: time.Millisecond,
	})

	_, err := d.ReadRaw(MuxDiff01)

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDevice_SetGain(t *testing.T) {
	bus := newFakeBus()
	d := New(bus)
	d.Configure()
	d.SetGain(GainSixteen)

	_, err := d.ReadRaw(MuxDiff01)

	require.NoError(t, err)
	require.Len(t, bus.configWrites, 1)
	assert.Equal(t, uint16(0x8BE3), bus.configWrites[0])
}

func TestDevice_SetGain_OutOfRange(t *testing.T) {
	bus := newFakeBus()
	d := New(bus)
	d.Configure()
	d.SetGain(GainFour)
	d.SetGain(Gain(17))

	_, err := d.ReadRaw(MuxDiff01)

	require.NoError(t, err)
	require.Len(t, bus.configWrites, 1)
	// The bogus setting is ignored; 4x stays active.
	assert.Equal(t, uint16(0x87E3), bus.configWrites[0])
}

func TestDevice_ReadVolts(t *testing.T) {
	tests := []struct {
		name string
		code uint16
		gain Gain
		want float32
	}{
		{name: "half scale at 2/3x", code: 0x4000, gain: GainTwoThirds, want: 3.072},
		{name: "half scale at 1x", code: 0x4000, gain: GainOne, want: 2.048},
		{name: "negative full scale", code: 0x8000, gain: GainTwoThirds, want: -6.144},
		{name: "top code at 16x", code: 0x7FFF, gain: GainSixteen, want: 0.2559921875},
		{name: "zero", code: 0x0000, gain: GainEight, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus()
			bus.regs[regConversion] = tt.code
			d := New(bus)
			d.Configure()
			d.SetGain(tt.gain)

			v, err := d.ReadVolts(MuxDiff01)

			require.NoError(t, err)
			assert.InDelta(t, tt.want, v, 1e-6)
		})
	}
}

func TestGain_FullScale(t *testing.T) {
	assert.InDelta(t, 6.144, GainTwoThirds.FullScale(), 1e-6)
	assert.InDelta(t, 4.096, GainOne.FullScale(), 1e-6)
	assert.InDelta(t, 2.048, GainTwo.FullScale(), 1e-6)
	assert.InDelta(t, 1.024, GainFour.FullScale(), 1e-6)
	assert.InDelta(t, 0.512, GainEight.FullScale(), 1e-6)
	assert.InDelta(t, 0.256, GainSixteen.FullScale(), 1e-6)

	// Out-of-range settings fall back to the widest window.
	assert.InDelta(t, 6.144, Gain(42).FullScale(), 1e-6)
}

package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goohm/pkg/meter"
)

// fakeScreen keeps the last full redraw, one string per row.
type fakeScreen struct {
	clears int
	rows   map[int]string
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{rows: make(map[int]string)}
}

func (s *fakeScreen) Clear() {
	s.clears++
	s.rows = make(map[int]string)
}

func (s *fakeScreen) WriteAt(col, row int, text string) {
	s.rows[row] = text
}

func TestPanel_ShowResistance(t *testing.T) {
	scr := newFakeScreen()
	p := NewPanel(scr, DefaultOptions())

	p.ShowResistance(meter.State{AverageOhms: 4700.08})

	assert.Equal(t, 1, scr.clears)
	assert.Equal(t, "Resistance:", scr.rows[0])
	assert.Equal(t, "4700.0 Ohm", scr.rows[1])
}

func TestPanel_HighEndCorrection(t *testing.T) {
	scr := newFakeScreen()
	p := NewPanel(scr, DefaultOptions())

	// 600 kOhm after the lead offset gets the 2.5% correction.
	p.ShowResistance(meter.State{AverageOhms: 600_000.08})

	assert.Equal(t, "615000.0 Ohm", scr.rows[1])
}

func TestPanel_ShowResistance_CeilingGuard(t *testing.T) {
	scr := newFakeScreen()
	p := NewPanel(scr, DefaultOptions())

	// 1.48 MOhm raw crosses the ceiling once the high-end correction lands.
	p.ShowResistance(meter.State{AverageOhms: 1_480_000})

	assert.Equal(t, "Out of range!", scr.rows[0])
	assert.Equal(t, "0 - 1.5 MOhm", scr.rows[1])
}

func TestPanel_ShowOverRange(t *testing.T) {
	scr := newFakeScreen()
	p := NewPanel(scr, DefaultOptions())

	p.ShowOverRange(meter.State{})

	assert.Equal(t, 1, scr.clears)
	assert.Equal(t, "Out of range!", scr.rows[0])
	assert.Equal(t, "0 - 1.5 MOhm", scr.rows[1])
}

func TestPanel_ShowMessage(t *testing.T) {
	scr := newFakeScreen()
	p := NewPanel(scr, DefaultOptions())

	p.ShowMessage("ADC init failed", "check wiring")

	assert.Equal(t, "ADC init failed", scr.rows[0])
	assert.Equal(t, "check wiring", scr.rows[1])
}

func TestPanel_TruncatesToColumns(t *testing.T) {
	scr := newFakeScreen()
	p := NewPanel(scr, Options{Columns: 8})

	p.ShowMessage("a very long top line", "ok")

	assert.Equal(t, "a very l", scr.rows[0])
	assert.Len(t, scr.rows[0], 8)
	assert.Equal(t, "ok", scr.rows[1])
}

func TestPanel_Adjust(t *testing.T) {
	p := NewPanel(newFakeScreen(), DefaultOptions())

	tests := []struct {
		name string
		in   float32
		want float64
	}{
		{"lead offset subtracted", 100.08, 100.0},
		{"reading at exactly the lead offset", 0.08, 0.0},
		{"just below the lead offset goes negative", 0.05, -0.03},
		{"high end corrected", 600_000.08, 615_000},
		{"threshold boundary corrected", 500_000.08, 512_500},
		{"below threshold untouched", 499_000.08, 499_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, float64(p.Adjust(tt.in)), 0.5)
		})
	}
}

func TestPanel_AdjustExactZero(t *testing.T) {
	p := NewPanel(newFakeScreen(), DefaultOptions())

	require.Equal(t, float32(0), p.Adjust(0.08))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 16, opts.Columns)
	assert.Equal(t, 2, opts.Rows)
	assert.Equal(t, float32(0.08), opts.LeadOhms)
	assert.Equal(t, float32(500_000), opts.HighEndThreshold)
	assert.Equal(t, float32(1.025), opts.HighEndFactor)
	assert.Equal(t, float32(1_500_000), opts.OutOfRangeCeiling)
}

func TestNewPanel_ZeroOptionsFallBack(t *testing.T) {
	scr := newFakeScreen()
	p := NewPanel(scr, Options{})

	p.ShowOverRange(meter.State{})
	assert.Equal(t, "0 - 1.5 MOhm", scr.rows[1])
}

// Package display renders meter readings onto a small character panel.
// It owns the presentation policy: probe lead compensation, the high-end
// correction, and the out-of-range screen.
package display

import (
	"fmt"

	"github.com/itohio/goohm/pkg/meter"
)

var _ meter.Display = (*Panel)(nil)

// Screen is the character panel capability the formatter draws on. Hardware
// implements it over HD44780-class modules; tests use an in-memory fake.
type Screen interface {
	Clear()
	WriteAt(col, row int, text string)
}

// Options holds the presentation constants. Zero fields fall back to the
// shipped defaults.
type Options struct {
	Columns           int
	Rows              int
	LeadOhms          float32 // Probe lead resistance subtracted from every reading
	HighEndThreshold  float32 // Adjusted readings at or above this get the correction
	HighEndFactor     float32 // Multiplicative correction for high readings
	OutOfRangeCeiling float32 // Upper end of the advertised range
}

// DefaultOptions returns the shipped presentation constants.
func DefaultOptions() Options {
	return Options{
		Columns:           16,
		Rows:              2,
		LeadOhms:          0.08,
		HighEndThreshold:  500_000,
		HighEndFactor:     1.025,
		OutOfRangeCeiling: 1_500_000,
	}
}

// Panel formats readings for a character display. It implements
// meter.Display, so a Meter pushes refreshes straight into it.
type Panel struct {
	scr  Screen
	opts Options
}

// NewPanel creates a panel formatter over scr.
func NewPanel(scr Screen, opts Options) *Panel {
	def := DefaultOptions()
	if opts.Columns == 0 {
		opts.Columns = def.Columns
	}
	if opts.Rows == 0 {
		opts.Rows = def.Rows
	}
	if opts.LeadOhms == 0 {
		opts.LeadOhms = def.LeadOhms
	}
	if opts.HighEndThreshold == 0 {
		opts.HighEndThreshold = def.HighEndThreshold
	}
	if opts.HighEndFactor == 0 {
		opts.HighEndFactor = def.HighEndFactor
	}
	if opts.OutOfRangeCeiling == 0 {
		opts.OutOfRangeCeiling = def.OutOfRangeCeiling
	}
	return &Panel{scr: scr, opts: opts}
}

// Adjust applies the presentation corrections to a raw average: subtract the
// probe lead offset, then scale readings in the high end where the divider
// systematically under-reads. Readings just below the lead offset come out
// slightly negative; they are rendered as-is.
func (p *Panel) Adjust(ohms float32) float32 {
	ohms -= p.opts.LeadOhms
	if ohms >= p.opts.HighEndThreshold {
		ohms *= p.opts.HighEndFactor
	}
	return ohms
}

// ShowResistance implements meter.Display: full redraw with the adjusted
// value on the second row. The adjusted value can cross the ceiling even
// when the raw average did not; it renders as over-range.
func (p *Panel) ShowResistance(st meter.State) {
	v := p.Adjust(st.AverageOhms)
	if v >= p.opts.OutOfRangeCeiling {
		p.ShowOverRange(st)
		return
	}
	p.scr.Clear()
	p.write(0, "Resistance:")
	p.write(1, FormatOhms(v))
}

// ShowOverRange implements meter.Display: the reading left the supported
// range (open probes included).
func (p *Panel) ShowOverRange(meter.State) {
	p.scr.Clear()
	p.write(0, "Out of range!")
	p.write(1, fmt.Sprintf("0 - %.1f MOhm", p.opts.OutOfRangeCeiling/1e6))
}

// ShowMessage performs a full redraw with two fixed lines. The boot path
// uses it for the front-end failure screen.
func (p *Panel) ShowMessage(top, bottom string) {
	p.scr.Clear()
	p.write(0, top)
	p.write(1, bottom)
}

func (p *Panel) write(row int, text string) {
	if len(text) > p.opts.Columns {
		text = text[:p.opts.Columns]
	}
	p.scr.WriteAt(0, row, text)
}

// FormatOhms renders a resistance with the fixed unit suffix.
func FormatOhms(ohms float32) string {
	return fmt.Sprintf("%.1f Ohm", ohms)
}

package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goohm/pkg/display"
	"github.com/itohio/goohm/pkg/meter"
	"github.com/itohio/goohm/pkg/ohm"
)

// labelScreen implements display.Screen over two strings so the host readout
// shows exactly what the instrument panel shows, truncation included.
type labelScreen struct {
	rows [2]string
}

func (s *labelScreen) Clear() {
	s.rows[0], s.rows[1] = "", ""
}

func (s *labelScreen) WriteAt(col, row int, text string) {
	if row < 0 || row >= len(s.rows) {
		return
	}
	// The panel writes whole rows starting at column 0
	s.rows[row] = text
}

// createReadout creates the large panel readout above the scope.
func createReadout(state *appState) fyne.CanvasObject {
	top := widget.NewLabel("")
	val := widget.NewLabelWithStyle("-", fyne.TextAlignLeading, fyne.TextStyle{Bold: true, Monospace: true})
	state.readoutTop = top
	state.readoutVal = val
	return container.NewVBox(top, val)
}

// rebuildPanel recreates the readout panel. Called at startup and whenever
// the presentation constants change.
func rebuildPanel(state *appState) {
	state.screen = &labelScreen{}
	state.panel = display.NewPanel(state.screen, display.Options{
		Columns:           state.cfg.Display.Columns,
		Rows:              state.cfg.Display.Rows,
		LeadOhms:          float32(state.cfg.Measurement.LeadResistance),
		HighEndThreshold:  float32(state.cfg.Measurement.HighEndThreshold),
		HighEndFactor:     float32(state.cfg.Measurement.HighEndCorrection),
		OutOfRangeCeiling: float32(state.cfg.Measurement.OutOfRangeCeiling),
	})
}

// updateReadout runs a reading through the same panel policy the instrument
// uses and mirrors the two panel rows. Must run on the fyne thread.
func updateReadout(state *appState, r ohm.Reading) {
	st := meter.State{
		AverageOhms: float32(r.Ohms),
		KnownOhms:   float32(r.KnownOhms),
		Gain:        r.Gain,
		TapsEnabled: r.TapsEnabled,
	}
	if r.OverRange {
		state.panel.ShowOverRange(st)
	} else {
		state.panel.ShowResistance(st)
	}

	state.readoutTop.SetText(state.screen.rows[0])
	state.readoutVal.SetText(state.screen.rows[1])
}

// handleZero captures the present average as the probe-lead offset so a
// shorted pair of probes reads zero from here on.
func handleZero(state *appState) {
	last, ok := state.history.Last()
	if !ok || last.OverRange {
		dialog.ShowInformation("Zero", "No reading to capture", state.window)
		return
	}

	state.cfg.Measurement.LeadResistance = last.Ohms
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return
	}

	rebuildPanel(state)
	updateReadout(state, last)
}

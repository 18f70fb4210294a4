package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goohm/pkg/ohm"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	// Create tabs
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createMeasurementTab(state),
		createNetworkTab(state),
		createMockTab(state),
	)

	// Create dialog with tabs as content
	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	// Get available serial ports
	ports, err := ohm.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
		currentDisplay = currentPort
	}

	portSelect := widget.NewSelect(portOptions, func(selected string) {
		// Selection handler - applied on submit
	})
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}

				// Check if port changed and device is connected
				portChanged := state.cfg.Serial.Port != selectedPort
				wasConnected := state.device != nil && state.device.IsConnected()

				state.cfg.Serial.Port = selectedPort
				if err := state.cfg.Save(state.configPath); err != nil {
					dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
					return
				}

				// If port changed and device was connected, restart the pipeline
				if portChanged && wasConnected {
					// Gracefully close old chain
					closeMeasurementChain(state.chain)
					state.chain = nil
					state.device = nil

					// Reconnect with new port
					handleConnect(state)
				}
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	sampleIntervalEntry := widget.NewEntry()
	sampleIntervalEntry.SetText(state.cfg.Measurement.SampleInterval.String())

	displayIntervalEntry := widget.NewEntry()
	displayIntervalEntry.SetText(state.cfg.Measurement.DisplayInterval.String())

	dropThresholdEntry := widget.NewEntry()
	dropThresholdEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Measurement.DropThreshold))

	leadEntry := widget.NewEntry()
	leadEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Measurement.LeadResistance))

	highEndThresholdEntry := widget.NewEntry()
	highEndThresholdEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Measurement.HighEndThreshold))

	highEndCorrectionEntry := widget.NewEntry()
	highEndCorrectionEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Measurement.HighEndCorrection))

	ceilingEntry := widget.NewEntry()
	ceilingEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Measurement.OutOfRangeCeiling))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sample Interval", Widget: sampleIntervalEntry},
			{Text: "Display Interval", Widget: displayIntervalEntry},
			{Text: "Drop Threshold", Widget: dropThresholdEntry},
			{Text: "Lead Resistance (Ohm)", Widget: leadEntry},
			{Text: "High-End Threshold (Ohm)", Widget: highEndThresholdEntry},
			{Text: "High-End Correction", Widget: highEndCorrectionEntry},
			{Text: "Out-of-Range Ceiling (Ohm)", Widget: ceilingEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(sampleIntervalEntry.Text); err == nil {
				state.cfg.Measurement.SampleInterval = d
			}
			if d, err := time.ParseDuration(displayIntervalEntry.Text); err == nil {
				state.cfg.Measurement.DisplayInterval = d
			}
			if v, err := strconv.ParseFloat(dropThresholdEntry.Text, 64); err == nil {
				state.cfg.Measurement.DropThreshold = v
			}
			if v, err := strconv.ParseFloat(leadEntry.Text, 64); err == nil {
				state.cfg.Measurement.LeadResistance = v
			}
			if v, err := strconv.ParseFloat(highEndThresholdEntry.Text, 64); err == nil {
				state.cfg.Measurement.HighEndThreshold = v
			}
			if v, err := strconv.ParseFloat(highEndCorrectionEntry.Text, 64); err == nil {
				state.cfg.Measurement.HighEndCorrection = v
			}
			if v, err := strconv.ParseFloat(ceilingEntry.Text, 64); err == nil {
				state.cfg.Measurement.OutOfRangeCeiling = v
			}
			if err := state.cfg.Save(state.configPath); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
			// The readout follows the new presentation constants immediately
			rebuildPanel(state)
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createNetworkTab creates the known-network configuration tab.
func createNetworkTab(state *appState) *container.TabItem {
	baselineEntry := widget.NewEntry()
	baselineEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Network.Baseline))

	items := []*widget.FormItem{
		{Text: "Baseline (Ohm)", Widget: baselineEntry},
	}

	tapEntries := make([]*widget.Entry, len(state.cfg.Network.Taps))
	for i := range state.cfg.Network.Taps {
		e := widget.NewEntry()
		e.SetText(fmt.Sprintf("%.0f", state.cfg.Network.Taps[i].Resistance))
		tapEntries[i] = e
		items = append(items, &widget.FormItem{
			Text:   fmt.Sprintf("Tap %d (Ohm)", i+1),
			Widget: e,
		})
	}

	form := &widget.Form{
		Items: items,
		OnSubmit: func() {
			if b, err := strconv.ParseFloat(baselineEntry.Text, 64); err == nil {
				state.cfg.Network.Baseline = b
			}
			for i, e := range tapEntries {
				if r, err := strconv.ParseFloat(e.Text, 64); err == nil {
					state.cfg.Network.Taps[i].Resistance = r
				}
			}
			if err := state.cfg.Save(state.configPath); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Network", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	resistanceEntry := widget.NewEntry()
	resistanceEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.Resistance))

	supplyEntry := widget.NewEntry()
	supplyEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Supply))

	noiseLevelEntry := widget.NewEntry()
	noiseLevelEntry.SetText(fmt.Sprintf("%.6f", state.cfg.Mock.NoiseLevel))

	openDurationEntry := widget.NewEntry()
	openDurationEntry.SetText(state.cfg.Mock.OpenDuration.String())

	openPeriodEntry := widget.NewEntry()
	openPeriodEntry.SetText(state.cfg.Mock.OpenPeriod.String())

	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Resistance (Ohm)", Widget: resistanceEntry},
			{Text: "Supply (V)", Widget: supplyEntry},
			{Text: "Noise Level (V)", Widget: noiseLevelEntry},
			{Text: "Open Duration", Widget: openDurationEntry},
			{Text: "Open Period", Widget: openPeriodEntry},
			{Text: "Sample Rate", Widget: sampleRateEntry},
		},
		OnSubmit: func() {
			if r, err := strconv.ParseFloat(resistanceEntry.Text, 64); err == nil {
				state.cfg.Mock.Resistance = r
			}
			if s, err := strconv.ParseFloat(supplyEntry.Text, 64); err == nil {
				state.cfg.Mock.Supply = s
			}
			if nl, err := strconv.ParseFloat(noiseLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseLevel = nl
			}
			if od, err := time.ParseDuration(openDurationEntry.Text); err == nil {
				state.cfg.Mock.OpenDuration = od
			}
			if op, err := time.ParseDuration(openPeriodEntry.Text); err == nil {
				state.cfg.Mock.OpenPeriod = op
			}
			if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
				state.cfg.Mock.SampleRate = sr
			}
			if err := state.cfg.Save(state.configPath); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}

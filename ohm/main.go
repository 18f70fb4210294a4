package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goohm/pkg/config"
	"github.com/itohio/goohm/pkg/display"
	"github.com/itohio/goohm/pkg/ohm"
	"github.com/itohio/goohm/pkg/sample"
	"github.com/itohio/goohm/pkg/scope"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.goohm")

	// Create main window
	window := application.NewWindow("Resistance Meter")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	// Create application state
	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		device:     nil,
		history:    sample.NewHistory(sample.DefaultWindow),
		window:     window,
		useMock:    *mockFlag,
	}
	rebuildPanel(state)

	// Create toolbar and the panel readout
	toolbar := createToolbar(state)
	readout := createReadout(state)

	// Create scope widget for the resistance trace
	scopeWidget := scope.New(sample.DefaultWindow)
	state.scopeWidget = scopeWidget

	// Readings fan out to the scope and the readout from the history
	// callback. Registered once; reconnects reuse it through history.Reset.
	// Throttle updates to ~60 FPS to keep the UI responsive at high rates.
	const updateInterval = 16 * time.Millisecond
	state.history.OnUpdate(func(readings []ohm.Reading) {
		state.updateMu.Lock()
		now := time.Now()
		tooSoon := now.Sub(state.lastUpdateTime) < updateInterval
		if !tooSoon {
			state.lastUpdateTime = now
		}
		state.updateMu.Unlock()
		if tooSoon {
			return
		}

		last := readings[len(readings)-1]

		// Update widgets on the main thread. The callback hands over its own
		// copy of the readings, so the closure is safe to defer.
		fyne.Do(func() {
			state.scopeWidget.UpdateData(readings)
			updateReadout(state, last)
		})
	})

	// Border layout: toolbar and readout on top, scope as content
	content := container.NewBorder(
		container.NewVBox(toolbar, readout),
		nil,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(content)
	window.ShowAndRun()
}

// measurementChain tracks the components of the reading pipeline for graceful
// shutdown.
type measurementChain struct {
	device           ohm.Device
	readings         <-chan ohm.Reading
	historyGoroutine chan struct{} // Closed when the history goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      ohm.Device
	history     *sample.History
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	zeroBtn     *widget.Button
	useMock     bool
	chain       *measurementChain // Current reading pipeline (nil if not connected)

	// Readout rendering (host mirror of the instrument panel)
	panel      *display.Panel
	screen     *labelScreen
	readoutTop *widget.Label
	readoutVal *widget.Label

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect, Settings and
// Zero buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	// Connect button with icon
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	// Settings button with icon
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	// Zero captures the current average as the probe-lead offset. Enabled
	// only while readings flow.
	zeroBtn := widget.NewButtonWithIcon("Zero", theme.ContentClearIcon(), func() {
		handleZero(state)
	})
	zeroBtn.Disable()
	state.zeroBtn = zeroBtn

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		container.NewHBox(zeroBtn),                 // right
		nil, // center (spacer)
	)
}

// closeMeasurementChain gracefully closes the reading pipeline: the device
// closes its channel and the history goroutine drains out.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	if chain.device != nil {
		chain.device.Close()
	}

	if chain.historyGoroutine != nil {
		<-chain.historyGoroutine
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close the reading pipeline
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		state.zeroBtn.Disable()
		if state.useMock {
			fmt.Println("Disconnected from mocked device")
		} else {
			fmt.Println("Disconnected from serial port")
		}
	} else {
		// Connect. Devices are single-use, so each connect builds a fresh one.
		var device ohm.Device
		if state.useMock {
			device = ohm.NewMock(state.cfg)
		} else {
			device = ohm.New(state.cfg.Serial.Port, ohm.DefaultBaudRate, ohm.DefaultBufferSize)
		}

		if err := device.Connect(); err != nil {
			if state.useMock {
				dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
			} else {
				dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
			}
			return
		}
		state.device = device
		if state.useMock {
			fmt.Println("Connected to mocked device")
		} else {
			fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
		}

		state.zeroBtn.Enable()

		// Fresh trace for the new connection
		state.history.Reset()

		readings := device.Readings()
		historyDone := make(chan struct{})
		go func() {
			defer close(historyDone)
			state.history.ProcessReadings(readings)
		}()

		// Store chain for graceful shutdown
		state.chain = &measurementChain{
			device:           device,
			readings:         readings,
			historyGoroutine: historyDone,
		}
	}
}

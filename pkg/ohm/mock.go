package ohm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/goohm/pkg/config"
	"github.com/itohio/goohm/pkg/meter"
)

// Mock simulates a meter device for testing and development. It runs the
// real measurement core against a simulated divider circuit, so the telemetry
// it emits goes through the same ranging and averaging as the firmware's.
type Mock struct {
	cfg *config.Config

	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// Simulation state, owned by the producer goroutine after Connect.
	circuit   *meter.Circuit
	core      *meter.Meter
	latch     *latchDisplay
	cycles    int
	startTime time.Time
	lastOpen  time.Time
}

// NewMock creates a new mocked device instance. A nil config uses the
// defaults.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		readings:  make(chan Reading, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect simulates connecting to the device: it builds the circuit and the
// measurement core and starts emitting readings.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	cfg := m.cfg
	taps := make([]float32, len(cfg.Network.Taps))
	for i, t := range cfg.Network.Taps {
		taps[i] = float32(t.Resistance)
	}

	m.circuit = meter.NewCircuit(float32(cfg.Mock.Supply), float32(cfg.Network.Baseline), taps)
	m.circuit.Unknown = float32(cfg.Mock.Resistance)
	if noise := float32(cfg.Mock.NoiseLevel); noise > 0 {
		start := time.Now()
		m.circuit.Noise = func() float32 {
			t := float32(time.Since(start).Seconds())
			return (math32.Sin(t*313) + math32.Cos(t*407)) * noise * 0.5
		}
	}

	m.latch = &latchDisplay{}
	m.core = meter.New(
		m.circuit,
		meter.NewTapBank(float32(cfg.Network.Baseline), m.circuit.Taps()),
		m.latch,
		meter.Params{
			SampleInterval:  cfg.Measurement.SampleInterval,
			DisplayInterval: cfg.Measurement.DisplayInterval,
			DropThreshold:   float32(cfg.Measurement.DropThreshold),
			Ceiling:         float32(cfg.Measurement.OutOfRangeCeiling),
			Tiers:           tiersFromConfig(cfg.GainTiers),
		},
	)

	// Fold as many sample cycles into each reading as the firmware fits
	// between display refreshes.
	m.cycles = int(cfg.Mock.SampleRate / cfg.Measurement.SampleInterval)
	if m.cycles < 1 {
		m.cycles = 1
	} else if m.cycles > 200 {
		m.cycles = 200
	}

	m.connected = true
	m.startTime = time.Now()
	// Probes start attached; the first open episode comes later in the period.
	m.lastOpen = m.startTime.Add(-m.cfg.Mock.OpenDuration)

	// Start generating readings
	go m.generateReadings()

	return nil
}

// Close stops the mocked device. The producer goroutine closes the readings
// channel on its way out.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false

	return nil
}

// Readings returns the channel for reading telemetry records.
func (m *Mock) Readings() <-chan Reading {
	return m.readings
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateReadings generates simulated readings. It owns the readings channel
// and closes it on exit.
func (m *Mock) generateReadings() {
	defer close(m.readings)

	ticker := time.NewTicker(m.cfg.Mock.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			reading := m.generateReading()
			select {
			case m.readings <- reading:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// generateReading runs one display period of the measurement core and
// publishes what the display would have shown.
func (m *Mock) generateReading() Reading {
	now := time.Now()

	// Lift the probes for OpenDuration once every OpenPeriod.
	if now.Sub(m.lastOpen) >= m.cfg.Mock.OpenPeriod {
		m.lastOpen = now
	}
	if now.Sub(m.lastOpen) < m.cfg.Mock.OpenDuration {
		m.circuit.Unknown = math32.Inf(1)
	} else {
		m.circuit.Unknown = float32(m.cfg.Mock.Resistance)
	}

	for i := 0; i < m.cycles; i++ {
		m.core.Sample()
	}
	m.core.Refresh()

	st := m.latch.st
	reading := Reading{
		Timestamp:   now,
		KnownOhms:   float64(st.KnownOhms),
		Gain:        st.Gain,
		TapsEnabled: st.TapsEnabled,
	}
	if m.latch.overRange {
		reading.OverRange = true
	} else {
		reading.Ohms = float64(st.AverageOhms)
	}

	return reading
}

// latchDisplay captures the outcome of each display refresh so the mock can
// publish it as a telemetry record.
type latchDisplay struct {
	st        meter.State
	overRange bool
}

func (l *latchDisplay) ShowResistance(st meter.State) {
	l.st = st
	l.overRange = false
}

func (l *latchDisplay) ShowOverRange(st meter.State) {
	l.st = st
	l.overRange = true
}

// tiersFromConfig converts the positional tier table; the position encodes
// the hardware gain setting.
func tiersFromConfig(tiers []config.GainTierConfig) []meter.GainTier {
	out := make([]meter.GainTier, len(tiers))
	for i, t := range tiers {
		out[i] = meter.GainTier{
			Gain: meter.Gain(i),
			Min:  float32(t.Min),
			Max:  float32(t.Max),
		}
	}
	return out
}

package meter

import (
	"time"

	"github.com/chewxy/math32"
)

// State is the measurement state. It is rewritten once per sample cycle and
// read by the display refresh; only AverageOhms survives between cycles.
type State struct {
	ReferenceVolts float32 // Across the whole divider
	KnownVolts     float32 // Across the known network
	UnknownVolts   float32 // Across the resistor under test, read at Gain
	KnownOhms      float32 // Active known-network resistance
	CurrentAmps    float32 // Loop current derived from the known drop
	Ohms           float32 // Instantaneous unknown resistance
	AverageOhms    float32 // Exponentially smoothed unknown resistance
	Gain           Gain    // Tier used for the precise unknown read
	TapsEnabled    int
}

// Params holds the measurement constants.
type Params struct {
	SampleInterval  time.Duration
	DisplayInterval time.Duration
	DropThreshold   float32    // Fraction of reference the known drop must not exceed
	Ceiling         float32    // Averages at or above this display as out of range
	Tiers           []GainTier // Ordered widest window first
}

// DefaultParams returns the shipped measurement constants.
func DefaultParams() Params {
	return Params{
		SampleInterval:  time.Millisecond,
		DisplayInterval: 100 * time.Millisecond,
		DropThreshold:   0.75,
		Ceiling:         1_500_000,
		Tiers:           DefaultTiers(),
	}
}

// Meter runs the measurement loop: ranges the known network and the ADC
// gain, derives the unknown resistance through the shared loop current, and
// keeps a running average for the display.
//
// A Meter is owned by a single goroutine. Tick, Sample, Refresh and Snapshot
// must not be called concurrently; there is no locking.
type Meter struct {
	source VoltageSource
	bank   *TapBank
	disp   Display
	params Params

	state       State
	lastSample  time.Time
	lastRefresh time.Time
}

// New creates a meter over its peripherals. An empty tier table is replaced
// with the defaults.
func New(source VoltageSource, bank *TapBank, disp Display, params Params) *Meter {
	if len(params.Tiers) == 0 {
		params.Tiers = DefaultTiers()
	}
	return &Meter{
		source: source,
		bank:   bank,
		disp:   disp,
		params: params,
	}
}

// Tick runs whatever is due at now: a sample cycle every SampleInterval and
// a display refresh every DisplayInterval. The two cadences are timed
// independently against their own last-run stamps, so a late tick never
// starves one activity to catch up on the other. Both fire on the first
// call.
func (m *Meter) Tick(now time.Time) {
	if now.Sub(m.lastSample) >= m.params.SampleInterval {
		m.Sample()
		m.lastSample = now
	}
	if now.Sub(m.lastRefresh) >= m.params.DisplayInterval {
		m.Refresh()
		m.lastRefresh = now
	}
}

// Sample runs one measurement cycle: re-baseline the network, switch in taps
// until the known drop is acceptable, pick a gain tier for the unknown read,
// and fold the result into the running average.
func (m *Meter) Sample() {
	st := &m.state

	// Start from scratch: no parallel taps, gain already back at the widest
	// window from the previous cycle.
	m.bank.Reset()
	st.ReferenceVolts = m.source.ReadVolts(ChannelReference)
	st.KnownVolts = m.source.ReadVolts(ChannelKnown)

	// Lower the known resistance until its share of the reference drop is
	// acceptable or the taps run out. Running out is not an error; accuracy
	// degrades at the extreme high end either way.
	for st.KnownVolts > m.params.DropThreshold*st.ReferenceVolts {
		if !m.bank.EnableNext() {
			break
		}
		st.ReferenceVolts = m.source.ReadVolts(ChannelReference)
		st.KnownVolts = m.source.ReadVolts(ChannelKnown)
	}
	st.KnownOhms = m.bank.Resistance()
	st.TapsEnabled = m.bank.Enabled()

	// A rough read at the wide window picks the tier; the measurement read
	// happens inside it, then the gain goes back to the default.
	rough := m.source.ReadVolts(ChannelUnknown)
	tier := SelectTier(m.params.Tiers, rough)
	m.source.SetGain(tier.Gain)
	st.UnknownVolts = m.source.ReadVolts(ChannelUnknown)
	st.Gain = tier.Gain
	m.source.SetGain(DefaultGain)

	// Ohm's law through the shared loop current. Open probes give zero
	// current and propagate Inf or NaN into the average; the refresh path
	// clears that.
	st.CurrentAmps = st.KnownVolts / st.KnownOhms
	st.Ohms = st.UnknownVolts / st.CurrentAmps
	st.AverageOhms = (st.AverageOhms + st.Ohms) / 2
}

// Refresh pushes the running average to the display. An average that left
// the presentable range (negative, at or above the ceiling, or non-finite)
// shows as over-range and resets to zero so the next readings converge
// fresh.
func (m *Meter) Refresh() {
	st := m.state
	avg := st.AverageOhms
	if math32.IsNaN(avg) || math32.IsInf(avg, 0) || avg < 0 || avg >= m.params.Ceiling {
		m.state.AverageOhms = 0
		m.disp.ShowOverRange(st)
		return
	}
	m.disp.ShowResistance(st)
}

// Snapshot returns a copy of the measurement state.
func (m *Meter) Snapshot() State {
	return m.state
}

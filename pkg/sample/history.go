package sample

import (
	"sync"
	"time"

	"github.com/itohio/goohm/pkg/ohm"
)

// DefaultWindow is the history span kept when none is configured.
const DefaultWindow = time.Minute

// History keeps a time-windowed FIFO of readings for plotting.
// Internally a plain slice trimmed by timestamp, externally an ordered view
// (oldest first, newest last) for oscillogram drawing. Removal is based on
// the timestamp window, not a sample count.
type History struct {
	mu       sync.RWMutex
	readings []ohm.Reading
	window   time.Duration

	// Update callbacks receive the current readings directly
	callbacks []func(readings []ohm.Reading)
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// NewHistory creates a history retaining readings for the given window.
// A non-positive window uses DefaultWindow.
func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = DefaultWindow
	}
	return &History{
		readings: make([]ohm.Reading, 0),
		window:   window,
	}
}

// ProcessReadings consumes readings from the input channel until it closes.
// Run it on its own goroutine; callbacks fire on that goroutine.
func (h *History) ProcessReadings(input <-chan ohm.Reading) {
	for r := range input {
		h.processReading(r)
	}
	// Channel closed - mark as shutdown to prevent further callbacks
	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
}

// processReading appends a reading and trims everything that fell out of the
// time window.
func (h *History) processReading(r ohm.Reading) {
	h.mu.Lock()

	h.readings = append(h.readings, r)

	// Remove readings outside the time window (based on timestamp, not count)
	cutoff := r.Timestamp.Add(-h.window)
	cutoffIndex := 0
	for i, rd := range h.readings {
		if rd.Timestamp.After(cutoff) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex > 0 {
		h.readings = h.readings[cutoffIndex:]
	}

	shouldNotify := !h.shutdown
	h.mu.Unlock()

	if shouldNotify {
		h.notifyCallbacks()
	}
}

// Readings returns a copy of the current readings buffer.
func (h *History) Readings() []ohm.Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]ohm.Reading, len(h.readings))
	copy(result, h.readings)
	return result
}

// Last returns the newest reading, if any.
func (h *History) Last() (ohm.Reading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.readings) == 0 {
		return ohm.Reading{}, false
	}
	return h.readings[len(h.readings)-1], true
}

// Reset clears the buffer and re-arms callbacks. Call it before attaching a
// new input channel, e.g. on reconnect.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readings = h.readings[:0]
	h.shutdown = false
}

// OnUpdate registers a callback invoked after every accepted reading with the
// current buffer contents. The callback should copy what it needs and return
// quickly.
func (h *History) OnUpdate(callback func(readings []ohm.Reading)) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.callbacks = append(h.callbacks, callback)
}

// notifyCallbacks invokes all registered callbacks with a copy of the current
// readings. No locks are held while the callbacks run.
func (h *History) notifyCallbacks() {
	h.mu.RLock()
	readingsCopy := make([]ohm.Reading, len(h.readings))
	copy(readingsCopy, h.readings)
	h.mu.RUnlock()

	h.cbMu.RLock()
	callbacks := make([]func(readings []ohm.Reading), len(h.callbacks))
	copy(callbacks, h.callbacks)
	h.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(readingsCopy)
		}
	}
}

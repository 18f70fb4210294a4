package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goohm/pkg/ohm"
)

func feed(h *History, readings ...ohm.Reading) {
	ch := make(chan ohm.Reading, len(readings))
	for _, r := range readings {
		ch <- r
	}
	close(ch)
	h.ProcessReadings(ch)
}

func TestNewHistory(t *testing.T) {
	h := NewHistory(10 * time.Second)
	assert.NotNil(t, h)
	assert.Equal(t, 10*time.Second, h.window)
}

func TestNewHistory_DefaultWindow(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultWindow, h.window)

	h = NewHistory(-time.Second)
	assert.Equal(t, DefaultWindow, h.window)
}

func TestHistory_ProcessReadings(t *testing.T) {
	now := time.Now()
	h := NewHistory(time.Minute)

	feed(h,
		ohm.Reading{Timestamp: now, Ohms: 100},
		ohm.Reading{Timestamp: now.Add(100 * time.Millisecond), Ohms: 101},
		ohm.Reading{Timestamp: now.Add(200 * time.Millisecond), Ohms: 102},
	)

	got := h.Readings()
	require.Len(t, got, 3)
	assert.Equal(t, float64(100), got[0].Ohms)
	assert.Equal(t, float64(101), got[1].Ohms)
	assert.Equal(t, float64(102), got[2].Ohms)
}

func TestHistory_TrimsByTimestamp(t *testing.T) {
	now := time.Now()
	h := NewHistory(time.Second)

	feed(h,
		ohm.Reading{Timestamp: now, Ohms: 1},
		ohm.Reading{Timestamp: now.Add(500 * time.Millisecond), Ohms: 2},
		ohm.Reading{Timestamp: now.Add(2 * time.Second), Ohms: 3},
	)

	// The third reading moved the window past the first two.
	got := h.Readings()
	require.Len(t, got, 1)
	assert.Equal(t, float64(3), got[0].Ohms)
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory(time.Minute)

	_, ok := h.Last()
	assert.False(t, ok)

	now := time.Now()
	feed(h,
		ohm.Reading{Timestamp: now, Ohms: 100},
		ohm.Reading{Timestamp: now.Add(time.Millisecond), Ohms: 200},
	)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, float64(200), last.Ohms)
}

func TestHistory_OnUpdate(t *testing.T) {
	h := NewHistory(time.Minute)

	calls := 0
	var lastLen int
	h.OnUpdate(func(readings []ohm.Reading) {
		calls++
		lastLen = len(readings)
	})

	now := time.Now()
	feed(h,
		ohm.Reading{Timestamp: now, Ohms: 1},
		ohm.Reading{Timestamp: now.Add(time.Millisecond), Ohms: 2},
		ohm.Reading{Timestamp: now.Add(2 * time.Millisecond), Ohms: 3},
	)

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, lastLen)
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(time.Minute)

	now := time.Now()
	feed(h, ohm.Reading{Timestamp: now, Ohms: 1})
	require.Len(t, h.Readings(), 1)

	h.Reset()
	assert.Empty(t, h.Readings())
	_, ok := h.Last()
	assert.False(t, ok)
}

func TestHistory_ShutdownLatchesUntilReset(t *testing.T) {
	h := NewHistory(time.Minute)

	calls := 0
	h.OnUpdate(func([]ohm.Reading) { calls++ })

	now := time.Now()
	feed(h, ohm.Reading{Timestamp: now, Ohms: 1})
	assert.Equal(t, 1, calls)

	// Input closed once; a second stream without Reset keeps callbacks off.
	feed(h, ohm.Reading{Timestamp: now.Add(time.Millisecond), Ohms: 2})
	assert.Equal(t, 1, calls)

	h.Reset()
	feed(h, ohm.Reading{Timestamp: now.Add(2 * time.Millisecond), Ohms: 3})
	assert.Equal(t, 2, calls)
}

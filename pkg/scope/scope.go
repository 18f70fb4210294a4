package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goohm/pkg/ohm"
	"github.com/itohio/goohm/pkg/sample"
)

// ScopeWidget is a custom Fyne widget that plots the resistance trace against
// time, with over-range readings marked on the plot.
type ScopeWidget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu       sync.RWMutex
	readings []ohm.Reading

	// Display buffer (reused for downsampling)
	displayReadings []ohm.Reading

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	// Display settings
	window           time.Duration
	maxDisplayPoints int
}

// New creates a new ScopeWidget spanning at least the given time window.
func New(window time.Duration) *ScopeWidget {
	if window <= 0 {
		window = sample.DefaultWindow
	}
	s := &ScopeWidget{
		readings:         make([]ohm.Reading, 0),
		displayReadings:  make([]ohm.Reading, 0, 1000),
		window:           window,
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData updates the widget with new readings.
// This should be called from the history callback using fyne.Do().
func (s *ScopeWidget) UpdateData(readings []ohm.Reading) {
	s.mu.Lock()

	// Downsample for display (reuse buffer)
	s.displayReadings = sample.Downsample(s.displayReadings, readings, s.maxDisplayPoints)

	// Store full data
	s.readings = readings

	// Calculate auto-scaling
	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// updateAutoScale calculates axis ranges from current data. Over-range
// readings carry no resistance value and stay out of the Y range.
func (s *ScopeWidget) updateAutoScale() {
	if len(s.displayReadings) == 0 {
		s.yMin = 0.0
		s.yMax = 1.0
		s.xMin = time.Now()
		s.xMax = time.Now().Add(s.window)
		return
	}

	first := true
	for _, r := range s.displayReadings {
		if r.OverRange {
			continue
		}
		if first {
			s.yMin = r.Ohms
			s.yMax = r.Ohms
			first = false
			continue
		}
		if r.Ohms < s.yMin {
			s.yMin = r.Ohms
		}
		if r.Ohms > s.yMax {
			s.yMax = r.Ohms
		}
	}
	if first {
		// Every reading in the window was over range
		s.yMin = 0.0
		s.yMax = 1.0
	}

	// Add 10% margin
	span := s.yMax - s.yMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	s.yMin -= margin
	s.yMax += margin

	// Time range
	s.xMin = s.displayReadings[0].Timestamp
	s.xMax = s.displayReadings[len(s.displayReadings)-1].Timestamp
	// Ensure minimum window
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}

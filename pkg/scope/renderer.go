package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/goohm/pkg/ohm"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, redraw with the new dimensions
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	readings := r.scope.displayReadings
	yMin := r.scope.yMin
	yMax := r.scope.yMax
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Rebuild everything except the background
	r.objects = []fyne.CanvasObject{r.grid}

	// Calculate margins
	marginLeft := float32(70.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	// Draw grid
	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMin, yMax, xMin, xMax)

	// Draw the resistance trace (orange line)
	if len(readings) > 1 {
		r.drawTrace(plotX, plotY, plotWidth, plotHeight, readings, yMin, yMax, xMin, xMax)
	}

	// Mark over-range readings (red vertical lines)
	r.drawOverRange(plotX, plotY, plotWidth, plotHeight, readings, xMin, xMax)

	// Annotate the active range
	if len(readings) > 0 {
		r.drawRangeInfo(plotX, plotY, readings[len(readings)-1])
	}
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64, xMin, xMax time.Time) {
	// Horizontal grid lines (resistance)
	numHLines := 8
	for i := range numHLines + 1 {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		// Y-axis label
		value := yMax - float64(i)*(yMax-yMin)/float64(numHLines)
		text := canvas.NewText(formatOhms(value), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	for i := range numVLines + 1 {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		// X-axis label
		frac := float64(i) / float64(numVLines)
		offset := time.Duration(frac * float64(xMax.Sub(xMin)))
		text := canvas.NewText(formatTime(offset), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws the resistance curve, breaking it across over-range
// readings so the trace never interpolates through a gap.
func (r *scopeRenderer) drawTrace(plotX, plotY, plotWidth, plotHeight float32, readings []ohm.Reading, yMin, yMax float64, xMin, xMax time.Time) {
	xSpan := xMax.Sub(xMin).Seconds()
	ySpan := yMax - yMin
	if xSpan <= 0 || ySpan <= 0 {
		return
	}

	havePrev := false
	var prev fyne.Position
	for _, rd := range readings {
		if rd.OverRange {
			havePrev = false
			continue
		}
		x := plotX + float32(rd.Timestamp.Sub(xMin).Seconds()/xSpan)*plotWidth
		y := plotY + plotHeight - float32((rd.Ohms-yMin)/ySpan)*plotHeight
		pos := fyne.NewPos(x, y)
		if havePrev {
			line := canvas.NewLine(color.RGBA{R: 255, G: 165, B: 0, A: 255}) // Orange
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
		}
		prev = pos
		havePrev = true
	}
}

// drawOverRange marks readings the meter reported as out of range.
func (r *scopeRenderer) drawOverRange(plotX, plotY, plotWidth, plotHeight float32, readings []ohm.Reading, xMin, xMax time.Time) {
	xSpan := xMax.Sub(xMin).Seconds()
	if xSpan <= 0 {
		return
	}

	for _, rd := range readings {
		if !rd.OverRange {
			continue
		}
		x := plotX + float32(rd.Timestamp.Sub(xMin).Seconds()/xSpan)*plotWidth
		line := canvas.NewLine(color.RGBA{R: 200, G: 60, B: 60, A: 255}) // Red
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)
	}
}

// drawRangeInfo annotates the plot with the active range from the newest
// reading.
func (r *scopeRenderer) drawRangeInfo(plotX, plotY float32, last ohm.Reading) {
	info := "known " + formatOhms(last.KnownOhms) +
		"   gain " + last.Gain.String() +
		"   taps " + strconv.Itoa(last.TapsEnabled)
	text := canvas.NewText(info, color.RGBA{R: 200, G: 200, B: 200, A: 255}) // Light gray
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(plotX+10, plotY+10))
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// Helper functions for formatting

func formatOhms(v float64) string {
	av := v
	if av < 0 {
		av = -av
	}
	switch {
	case av >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 2, 64) + " MOhm"
	case av >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + " kOhm"
	default:
		return strconv.FormatFloat(v, 'f', 1, 64) + " Ohm"
	}
}

func formatTime(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}

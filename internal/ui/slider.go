package ui

import (
	"math"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
)

// Slider is a vertical control for a value in [lo, hi]. The top row is hi
// and the bottom row lo.
type Slider struct{}

// Row returns the row of rect the knob sits on for value.
func (Slider) Row(rect core.ScreenRect, value, lo, hi float64) int {
	steps := rect.Height() - 1
	if steps <= 0 || hi <= lo {
		return rect.Top
	}
	t := (max(lo, min(hi, value)) - lo) / (hi - lo)
	return rect.Bottom - 1 - int(math.Round(t*float64(steps)))
}

// ValueAt returns the value for a press on row y of rect. Rows outside the
// track clamp to its ends.
func (Slider) ValueAt(rect core.ScreenRect, y int, lo, hi float64) float64 {
	steps := rect.Height() - 1
	if steps <= 0 {
		return lo
	}
	y = max(rect.Top, min(rect.Bottom-1, y))
	t := float64(rect.Bottom-1-y) / float64(steps)
	return lo + t*(hi-lo)
}

// Draw renders the track and the knob for value.
func (s Slider) Draw(b backend.Backend, rect core.ScreenRect, value, lo, hi float64, th Theme) {
	fill(b, rect, th.Slider)
	if rect.IsEmpty() {
		return
	}
	mid := rect.Left + rect.Width()/2
	for y := rect.Top; y < rect.Bottom; y++ {
		b.SetCell(mid, y, core.Cell{Rune: '│', Width: 1, Style: th.Slider})
	}
	knob := s.Row(rect, value, lo, hi)
	for x := rect.Left; x < rect.Right; x++ {
		b.SetCell(x, knob, core.Cell{Rune: '━', Width: 1, Style: th.SliderKnob})
	}
}

// Package ui draws the viewer on a terminal backend: menu bar, source
// editor, image pane with its zoom controls, log panel, status line and the
// open-file overlay.
//
// Widgets are plain structs with a Draw method taking the backend and the
// rectangle they own. They keep only view state (scroll offsets, the open
// menu, the picker listing); application state is read from the viewer on
// every frame.
package ui

import (
	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
)

// Theme holds the styles used by the widgets.
type Theme struct {
	Menu        core.Style
	MenuKey     core.Style
	MenuActive  core.Style
	Editor      core.Style
	Border      core.Style
	Focused     core.Style
	ImageBg     core.Color
	Placeholder core.Style
	Button      core.Style
	Slider      core.Style
	SliderKnob  core.Style
	Log         core.Style
	LogTitle    core.Style
	Status      core.Style
	StatusError core.Style
	Picker      core.Style
	PickerDir   core.Style
	PickerSel   core.Style
}

// DefaultTheme returns the built-in dark theme.
func DefaultTheme() Theme {
	bar := core.DefaultStyle().
		WithBackground(core.ColorFromRGB(48, 48, 56)).
		WithForeground(core.ColorFromRGB(220, 220, 220))
	panel := core.DefaultStyle().
		WithBackground(core.ColorFromRGB(30, 30, 36)).
		WithForeground(core.ColorFromRGB(210, 210, 210))

	return Theme{
		Menu:        bar,
		MenuKey:     bar.WithForeground(core.ColorFromRGB(240, 200, 90)),
		MenuActive:  bar.Reverse(),
		Editor:      panel,
		Border:      panel.WithForeground(core.ColorGray),
		Focused:     panel.WithForeground(core.ColorFromRGB(120, 180, 255)).Bold(),
		ImageBg:     core.ColorFromRGB(64, 64, 64),
		Placeholder: panel.Dim(),
		Button:      bar.Bold(),
		Slider:      panel.WithForeground(core.ColorGray),
		SliderKnob:  panel.WithForeground(core.ColorFromRGB(120, 180, 255)).Bold(),
		Log:         panel,
		LogTitle:    bar.Bold(),
		Status:      bar,
		StatusError: bar.WithForeground(core.ColorFromRGB(255, 110, 110)).Bold(),
		Picker:      bar,
		PickerDir:   bar.WithForeground(core.ColorFromRGB(120, 180, 255)),
		PickerSel:   bar.Reverse(),
	}
}

// fill paints rect with spaces in style.
func fill(b backend.Backend, rect core.ScreenRect, style core.Style) {
	if rect.IsEmpty() {
		return
	}
	b.Fill(rect, core.Cell{Rune: ' ', Width: 1, Style: style})
}

// drawText writes s starting at x on row y, clipped at right (exclusive).
// It returns the column after the last cell written.
func drawText(b backend.Backend, x, y, right int, s string, style core.Style) int {
	for _, r := range s {
		w := core.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > right {
			break
		}
		b.SetCell(x, y, core.Cell{Rune: r, Width: w, Style: style})
		x += w
	}
	return x
}

// drawTextRight writes s so that it ends just before right.
func drawTextRight(b backend.Backend, left, y, right int, s string, style core.Style) {
	x := max(left, right-core.StringWidth(s))
	drawText(b, x, y, right, s, style)
}

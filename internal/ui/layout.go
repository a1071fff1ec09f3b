package ui

import "github.com/dshills/astview/internal/renderer/core"

const (
	// sliderWidth is the width of the zoom slider column.
	sliderWidth = 3
	// resetLabel is the text of the reset button.
	resetLabel = "[ Reset ]"
)

// Layout is the division of the screen into widget areas.
type Layout struct {
	Width, Height int

	Menu   core.ScreenRect
	Status core.ScreenRect

	// EditorTitle and Editor form the left pane.
	EditorTitle core.ScreenRect
	Editor      core.ScreenRect
	Divider     core.ScreenRect

	// ImageHeader holds the zoom label and the reset button; Image is the
	// area the diagram is drawn in and Slider the zoom slider beside it.
	ImageHeader core.ScreenRect
	Reset       core.ScreenRect
	Image       core.ScreenRect
	Slider      core.ScreenRect

	// Log is empty when the log panel is hidden.
	Log core.ScreenRect
}

// ComputeLayout divides a width by height screen. The editor takes the left
// half, the image pane the right half, and the log panel, when shown, the
// bottom quarter of the space between the menu bar and the status line.
func ComputeLayout(width, height int, showLog bool) Layout {
	l := Layout{Width: width, Height: height}
	screen := core.NewScreenRect(0, 0, max(0, height), max(0, width))

	var body core.ScreenRect
	l.Menu, body = screen.SplitTop(1)
	body, l.Status = body.SplitBottom(1)

	if showLog && body.Height() > 0 {
		body, l.Log = body.SplitBottom(max(3, body.Height()/4))
	}

	left, right := body.SplitLeft(body.Width() / 2)
	l.Divider, right = right.SplitLeft(1)

	l.EditorTitle, l.Editor = left.SplitTop(1)

	l.ImageHeader, right = right.SplitTop(1)
	l.Image, l.Slider = right.SplitRight(sliderWidth)

	_, l.Reset = l.ImageHeader.SplitRight(core.StringWidth(resetLabel))
	return l
}

// Region identifies the widget under a screen position.
type Region int

const (
	RegionNone Region = iota
	RegionMenu
	RegionEditor
	RegionImage
	RegionSlider
	RegionReset
	RegionLog
	RegionStatus
)

// String returns the region name.
func (r Region) String() string {
	switch r {
	case RegionMenu:
		return "menu"
	case RegionEditor:
		return "editor"
	case RegionImage:
		return "image"
	case RegionSlider:
		return "slider"
	case RegionReset:
		return "reset"
	case RegionLog:
		return "log"
	case RegionStatus:
		return "status"
	default:
		return "none"
	}
}

// HitTest returns the region containing column x, row y.
func (l Layout) HitTest(x, y int) Region {
	pos := core.ScreenPos{Row: y, Col: x}
	switch {
	case l.Menu.Contains(pos):
		return RegionMenu
	case l.Reset.Contains(pos):
		return RegionReset
	case l.Slider.Contains(pos):
		return RegionSlider
	case l.Image.Contains(pos):
		return RegionImage
	case l.Editor.Contains(pos), l.EditorTitle.Contains(pos):
		return RegionEditor
	case l.Log.Contains(pos):
		return RegionLog
	case l.Status.Contains(pos):
		return RegionStatus
	default:
		return RegionNone
	}
}

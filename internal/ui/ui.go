package ui

import (
	"path/filepath"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
	"github.com/dshills/astview/internal/viewer"
)

// Focus is the pane receiving keys.
type Focus int

const (
	FocusEditor Focus = iota
	FocusImage
)

// String returns the pane name.
func (f Focus) String() string {
	if f == FocusImage {
		return "image"
	}
	return "editor"
}

// UI is the set of widgets making up the screen.
type UI struct {
	Theme  Theme
	Menu   *MenuBar
	Editor *EditorView
	Image  *ImageView
	Slider Slider
	Log    *LogPanel
	Picker *FilePicker
	Status *StatusLine

	focus   Focus
	layout  Layout
	message string
	isError bool
}

// New assembles the widgets. hl colors the editor and image draws the
// diagram; exts filters the open-file overlay.
func New(hl *Highlighter, image *ImageView, exts []string) *UI {
	return &UI{
		Theme:  DefaultTheme(),
		Menu:   NewMenuBar(),
		Editor: NewEditorView(hl),
		Image:  image,
		Log:    NewLogPanel(),
		Picker: NewFilePicker(exts),
		Status: NewStatusLine(),
	}
}

// Focus returns the focused pane.
func (u *UI) Focus() Focus { return u.focus }

// SetFocus focuses pane f.
func (u *UI) SetFocus(f Focus) { u.focus = f }

// ToggleFocus moves focus to the other pane.
func (u *UI) ToggleFocus() {
	if u.focus == FocusEditor {
		u.focus = FocusImage
	} else {
		u.focus = FocusEditor
	}
}

// Layout returns the layout of the last Resize or Draw.
func (u *UI) Layout() Layout { return u.layout }

// Resize recomputes the layout for a width by height screen.
func (u *UI) Resize(width, height int) {
	u.layout = ComputeLayout(width, height, u.Log.Visible())
}

// ToggleLog shows or hides the log panel.
func (u *UI) ToggleLog() {
	u.Log.Toggle()
	u.Resize(u.layout.Width, u.layout.Height)
}

// SetMessage shows msg in the status line until the next message.
func (u *UI) SetMessage(msg string, isError bool) {
	u.message, u.isError = msg, isError
}

// Message returns the status line message.
func (u *UI) Message() (string, bool) { return u.message, u.isError }

// ImagePixels returns the pixel size of the image area.
func (u *UI) ImagePixels() (w, h int) {
	return u.Image.PixelSize(u.layout.Image)
}

// Draw renders the whole screen for v. It does not call Show.
func (u *UI) Draw(b backend.Backend, v *viewer.Viewer) {
	w, h := b.Size()
	u.Resize(w, h)
	l := u.layout
	th := u.Theme

	name := "[scratch]"
	if p := v.OpenedPath(); p != "" {
		name = filepath.Base(p)
	}

	u.Editor.Draw(b, l.EditorTitle, l.Editor, v.Buffer(), name, u.focus == FocusEditor, th)

	fill(b, l.Divider, th.Border)
	for y := l.Divider.Top; y < l.Divider.Bottom; y++ {
		b.SetCell(l.Divider.Left, y, core.Cell{Rune: '│', Width: 1, Style: th.Border})
	}

	lo, hi := v.ZoomRange()
	u.Image.DrawHeader(b, l.ImageHeader, l.Reset, v.Zoom(), u.focus == FocusImage, th)
	panX, panY := v.Offset()
	u.Image.Draw(b, l.Image, v.Image(), panX, panY, th)
	u.Slider.Draw(b, l.Slider, v.Zoom(), lo, hi, th)

	if u.Log.Visible() {
		u.Log.Draw(b, l.Log, v.Log().String(), th)
	}

	u.Status.Draw(b, l.Status, StatusInfo{
		State:   v.State(),
		File:    v.OpenedPath(),
		Args:    v.Options().Args(),
		Stats:   v.Stats(),
		Focus:   u.focus.String(),
		Message: u.message,
		IsError: u.isError,
	}, th)

	u.Menu.Draw(b, l.Menu, v.Options(), u.Log.Visible(), th)

	if u.Picker.IsOpen() || u.Menu.IsOpen() {
		u.Image.Hide()
	}
	if u.Picker.IsOpen() {
		b.HideCursor()
		u.Picker.Draw(b, u.Picker.Rect(w, h), th)
	}
	if u.focus != FocusEditor || u.Menu.IsOpen() {
		b.HideCursor()
	}
}

package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/ui"
	"github.com/dshills/astview/internal/viewer"
)

const (
	// zoomStep is the factor one zoom key press or wheel notch applies.
	zoomStep = 1.1
	// panCells is how far, in cells, one arrow key press moves the image.
	panCells = 4
	// scrollLines is how far one wheel notch scrolls text.
	scrollLines = 3
)

const helpText = "F5 compile  F2 open  F3 options  F4 logs  F6 focus  +/- zoom  r reset  Ctrl+Q quit"

// drag is what a held mouse button is doing.
type drag int

const (
	dragNone drag = iota
	// dragConsumed ignores motion until release.
	dragConsumed
	dragImage
	dragSlider
)

// inputState tracks mouse state between events.
type inputState struct {
	drag         drag
	lastX, lastY int
}

// handleKeyEvent routes a key to the open overlay, the global shortcuts or
// the focused pane, in that order.
func (app *Application) handleKeyEvent(ev backend.Event) error {
	u := app.ui

	if u.Picker.IsOpen() {
		path, done := u.Picker.HandleKey(ev)
		if done && path != "" {
			return app.openFile(path)
		}
		return nil
	}
	if act, ok := u.Menu.HandleKey(ev); ok {
		return app.perform(act)
	}

	switch ev.Key {
	case backend.KeyF1:
		u.SetMessage(helpText, false)
		return nil
	case backend.KeyF5:
		return app.perform(ui.Action{Kind: ui.ActionCompile})
	case backend.KeyF2, backend.KeyCtrlO:
		return app.perform(ui.Action{Kind: ui.ActionOpenFile})
	case backend.KeyF3:
		u.Menu.OpenOptions()
		return nil
	case backend.KeyF4:
		return app.perform(ui.Action{Kind: ui.ActionToggleLog})
	case backend.KeyF6:
		u.ToggleFocus()
		return nil
	case backend.KeyCtrlQ, backend.KeyCtrlC:
		return app.perform(ui.Action{Kind: ui.ActionQuit})
	case backend.KeyCtrlL:
		app.backend.Clear()
		u.Image.Invalidate()
		return nil
	case backend.KeyCtrlR:
		return app.reload()
	case backend.KeyEnd:
		if u.Log.Scrolled() {
			u.Log.Follow()
			return nil
		}
	}

	if u.Focus() == ui.FocusImage {
		return app.handleImageKey(ev)
	}
	app.handleEditorKey(ev)
	return nil
}

// handleEditorKey edits the buffer. The debounce in the frame loop picks
// up the change.
func (app *Application) handleEditorKey(ev backend.Event) {
	buf := app.buffer
	fits := true

	switch ev.Key {
	case backend.KeyRune:
		if ev.Mod.Has(backend.ModAlt) || ev.Mod.Has(backend.ModCtrl) {
			return
		}
		fits = buf.Insert(ev.Rune)
	case backend.KeyEnter:
		fits = buf.Insert('\n')
	case backend.KeyTab:
		fits = buf.Insert('\t')
	case backend.KeyBackspace:
		buf.Backspace()
	case backend.KeyDelete:
		buf.Delete()
	case backend.KeyLeft:
		buf.MoveLeft()
	case backend.KeyRight:
		buf.MoveRight()
	case backend.KeyUp:
		buf.MoveUp()
	case backend.KeyDown:
		buf.MoveDown()
	case backend.KeyHome:
		buf.MoveHome()
	case backend.KeyEnd:
		buf.MoveEnd()
	case backend.KeyPageUp:
		for i, n := 0, max(1, app.ui.Layout().Editor.Height()); i < n; i++ {
			buf.MoveUp()
		}
	case backend.KeyPageDown:
		for i, n := 0, max(1, app.ui.Layout().Editor.Height()); i < n; i++ {
			buf.MoveDown()
		}
	}

	if !fits {
		app.ui.SetMessage(fmt.Sprintf("buffer full: at most %d bytes", buf.Limit()), true)
	}
}

// handleImageKey pans and zooms the diagram.
func (app *Application) handleImageKey(ev backend.Event) error {
	v := app.viewer
	cw, ch := app.ui.Image.CellSize()
	dx, dy := float64(panCells*cw), float64(panCells*ch)

	switch ev.Key {
	case backend.KeyLeft:
		v.Pan(-dx, 0)
	case backend.KeyRight:
		v.Pan(dx, 0)
	case backend.KeyUp:
		v.Pan(0, -dy)
	case backend.KeyDown:
		v.Pan(0, dy)
	case backend.KeyEscape:
		app.ui.SetFocus(ui.FocusEditor)
	case backend.KeyRune:
		switch ev.Rune {
		case '+', '=':
			app.setZoom(v.Zoom() * zoomStep)
		case '-', '_':
			app.setZoom(v.Zoom() / zoomStep)
		case 'r', '0':
			app.resetView()
		}
	}
	return nil
}

// handleMouseEvent handles presses, drags and the wheel. The terminal
// reports motion with a held button as repeated presses, so the first
// press decides what the drag does until release.
func (app *Application) handleMouseEvent(ev backend.Event) error {
	in := &app.input

	switch ev.MouseButton {
	case backend.MouseNone:
		in.drag = dragNone
		return nil
	case backend.MouseWheelUp, backend.MouseWheelDown:
		app.handleWheel(ev)
		return nil
	case backend.MouseLeft:
	default:
		return nil
	}

	if in.drag != dragNone {
		app.continueDrag(ev.MouseX, ev.MouseY)
		return nil
	}
	return app.press(ev.MouseX, ev.MouseY)
}

// press handles the start of a left button press at x, y.
func (app *Application) press(x, y int) error {
	u := app.ui
	l := u.Layout()
	in := &app.input
	in.drag = dragConsumed

	if u.Picker.IsOpen() {
		path, done := u.Picker.Click(u.Picker.Rect(l.Width, l.Height), x, y)
		if done && path != "" {
			return app.openFile(path)
		}
		return nil
	}
	if act, ok := u.Menu.Click(l.Menu, x, y); ok {
		return app.perform(act)
	}

	switch l.HitTest(x, y) {
	case ui.RegionImage:
		u.SetFocus(ui.FocusImage)
		in.drag = dragImage
		in.lastX, in.lastY = x, y
	case ui.RegionSlider:
		in.drag = dragSlider
		app.zoomFromSlider(y)
	case ui.RegionReset:
		app.resetView()
	case ui.RegionEditor:
		u.SetFocus(ui.FocusEditor)
		u.Editor.Click(app.buffer, l.Editor, x, y)
	}
	return nil
}

// continueDrag handles motion with the button still held.
func (app *Application) continueDrag(x, y int) {
	in := &app.input
	switch in.drag {
	case dragImage:
		cw, ch := app.ui.Image.CellSize()
		app.viewer.Pan(float64((x-in.lastX)*cw), float64((y-in.lastY)*ch))
		in.lastX, in.lastY = x, y
	case dragSlider:
		app.zoomFromSlider(y)
	}
}

// handleWheel zooms over the image and scrolls over text.
func (app *Application) handleWheel(ev backend.Event) {
	u := app.ui
	if u.Picker.IsOpen() || u.Menu.IsOpen() {
		return
	}
	up := ev.MouseButton == backend.MouseWheelUp

	switch u.Layout().HitTest(ev.MouseX, ev.MouseY) {
	case ui.RegionImage, ui.RegionSlider, ui.RegionReset:
		if up {
			app.setZoom(app.viewer.Zoom() * zoomStep)
		} else {
			app.setZoom(app.viewer.Zoom() / zoomStep)
		}
	case ui.RegionLog:
		if up {
			u.Log.Scroll(scrollLines)
		} else {
			u.Log.Scroll(-scrollLines)
		}
	case ui.RegionEditor:
		if up {
			u.Editor.ScrollBy(-scrollLines, app.buffer)
		} else {
			u.Editor.ScrollBy(scrollLines, app.buffer)
		}
	}
}

// perform carries out a menu or shortcut action.
func (app *Application) perform(act ui.Action) error {
	switch act.Kind {
	case ui.ActionCompile:
		res, err := app.viewer.Compile(app.ctx, viewer.TriggerManual)
		return app.afterCycle(res, err)
	case ui.ActionOpenFile:
		app.openPicker()
	case ui.ActionToggleLog:
		app.ui.ToggleLog()
		app.ui.Image.Invalidate()
	case ui.ActionToggleOption:
		res, err := app.viewer.ToggleOption(app.ctx, act.Flag)
		return app.afterCycle(res, err)
	case ui.ActionReset:
		app.resetView()
	case ui.ActionQuit:
		return ErrQuit
	}
	return nil
}

// openPicker shows the open-file overlay in the directory of the opened
// file, or the working directory.
func (app *Application) openPicker() {
	dir := "."
	if p := app.viewer.OpenedPath(); p != "" {
		dir = filepath.Dir(p)
	} else if wd, err := os.Getwd(); err == nil {
		dir = wd
	}
	if err := app.ui.Picker.Open(dir); err != nil {
		app.logger.Warn("list %s: %v", dir, err)
	}
}

// openFile loads path into the editor, compiles it and starts watching it.
// A file that cannot be read leaves everything as it was.
func (app *Application) openFile(path string) error {
	res, err := app.viewer.Open(app.ctx, path)
	if err != nil && !isCompilerError(err) {
		app.ui.SetMessage(err.Error(), true)
		return nil
	}
	app.opened(path)
	return app.afterCycle(res, err)
}

// opened follows a successful load of path.
func (app *Application) opened(path string) {
	app.ui.Editor.Highlighter().Detect(path, app.buffer.String())
	if app.watcher != nil {
		if werr := app.watcher.Watch(path); werr != nil {
			app.logger.Warn("watch %s: %v", path, werr)
		}
	}
}

// reload reads the opened file again.
func (app *Application) reload() error {
	res, err := app.viewer.Reload(app.ctx)
	if err != nil && !isCompilerError(err) {
		app.ui.SetMessage(err.Error(), true)
		return nil
	}
	return app.afterCycle(res, err)
}

// setZoom changes the zoom. A render failure keeps the previous raster.
func (app *Application) setZoom(z float64) {
	if err := app.viewer.SetZoom(z); err != nil {
		app.ui.SetMessage(fmt.Sprintf("zoom: %v", err), true)
	}
}

func (app *Application) zoomFromSlider(y int) {
	lo, hi := app.viewer.ZoomRange()
	app.setZoom(app.ui.Slider.ValueAt(app.ui.Layout().Slider, y, lo, hi))
}

// resetView fits the diagram into the image area.
func (app *Application) resetView() {
	w, h := app.ui.ImagePixels()
	if err := app.viewer.Reset(w, h); err != nil {
		app.ui.SetMessage("nothing to fit yet", false)
	}
}

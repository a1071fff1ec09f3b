package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
)

type pickerEntry struct {
	name string
	dir  bool
}

// FilePicker is a modal overlay for choosing a source file. It lists the
// directories and the files whose extension is accepted.
type FilePicker struct {
	exts    []string
	open    bool
	dir     string
	entries []pickerEntry
	sel     int
	scroll  int
	err     error
}

// NewFilePicker creates a picker accepting the given extensions, e.g.
// ".tig". An empty list accepts every file.
func NewFilePicker(exts []string) *FilePicker {
	return &FilePicker{exts: exts}
}

// IsOpen reports whether the overlay is shown.
func (p *FilePicker) IsOpen() bool { return p.open }

// Dir returns the directory being listed.
func (p *FilePicker) Dir() string { return p.dir }

// Open shows the overlay listing dir.
func (p *FilePicker) Open(dir string) error {
	p.open = true
	return p.chdir(dir)
}

// Close hides the overlay.
func (p *FilePicker) Close() { p.open = false }

func (p *FilePicker) accepts(name string) bool {
	if len(p.exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range p.exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (p *FilePicker) chdir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		p.err = err
		return err
	}
	list, err := os.ReadDir(abs)
	if err != nil {
		p.err = err
		return fmt.Errorf("list %s: %w", abs, err)
	}

	entries := make([]pickerEntry, 0, len(list)+1)
	if parent := filepath.Dir(abs); parent != abs {
		entries = append(entries, pickerEntry{name: "..", dir: true})
	}
	var files []pickerEntry
	for _, de := range list {
		name := de.Name()
		isDir := de.IsDir()
		if de.Type()&os.ModeSymlink != 0 {
			if fi, err := os.Stat(filepath.Join(abs, name)); err == nil {
				isDir = fi.IsDir()
			}
		}
		switch {
		case isDir:
			entries = append(entries, pickerEntry{name: name, dir: true})
		case p.accepts(name):
			files = append(files, pickerEntry{name: name})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].name == ".." {
			return true
		}
		if entries[j].name == ".." {
			return false
		}
		return entries[i].name < entries[j].name
	})
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	p.dir = abs
	p.entries = append(entries, files...)
	p.sel, p.scroll, p.err = 0, 0, nil
	return nil
}

// Entries returns the listed names; directories end in a slash.
func (p *FilePicker) Entries() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.name
		if e.dir {
			out[i] += "/"
		}
	}
	return out
}

// activate enters the selected directory or returns the selected file.
func (p *FilePicker) activate() (string, bool) {
	if p.sel < 0 || p.sel >= len(p.entries) {
		return "", false
	}
	e := p.entries[p.sel]
	path := filepath.Join(p.dir, e.name)
	if e.dir {
		_ = p.chdir(path) // the error is shown in the overlay
		return "", false
	}
	p.open = false
	return path, true
}

// HandleKey processes a key while the overlay is open. It returns the
// chosen path and done once the user picked a file or cancelled; a cancel
// returns an empty path.
func (p *FilePicker) HandleKey(ev backend.Event) (path string, done bool) {
	switch ev.Key {
	case backend.KeyEscape, backend.KeyCtrlO, backend.KeyF2:
		p.open = false
		return "", true
	case backend.KeyUp:
		p.sel = max(0, p.sel-1)
	case backend.KeyDown:
		p.sel = min(len(p.entries)-1, p.sel+1)
	case backend.KeyPageUp:
		p.sel = max(0, p.sel-10)
	case backend.KeyPageDown:
		p.sel = min(len(p.entries)-1, p.sel+10)
	case backend.KeyHome:
		p.sel = 0
	case backend.KeyEnd:
		p.sel = len(p.entries) - 1
	case backend.KeyBackspace, backend.KeyLeft:
		_ = p.chdir(filepath.Dir(p.dir))
	case backend.KeyEnter, backend.KeyRight:
		return p.activate()
	}
	return "", false
}

// Rect returns the overlay area centered on a screen of width by height.
func (p *FilePicker) Rect(width, height int) core.ScreenRect {
	w := max(0, min(64, width-4))
	h := max(0, min(22, height-4))
	return core.RectFromSize((height-h)/2, (width-w)/2, h, w)
}

// listRect is the part of the overlay showing entries: inside the border,
// below the directory line and any error, and above the hint line.
func (p *FilePicker) listRect(rect core.ScreenRect) core.ScreenRect {
	top := rect.Top + 2
	if p.err != nil {
		top++
	}
	return core.NewScreenRect(top, rect.Left+1, rect.Bottom-2, rect.Right-1)
}

// Click selects the entry under x, y and activates it, like Enter. A click
// outside the overlay cancels.
func (p *FilePicker) Click(rect core.ScreenRect, x, y int) (path string, done bool) {
	pos := core.ScreenPos{Row: y, Col: x}
	if !rect.Contains(pos) {
		p.open = false
		return "", true
	}
	list := p.listRect(rect)
	if !list.Contains(pos) {
		return "", false
	}
	i := p.scroll + y - list.Top
	if i >= len(p.entries) {
		return "", false
	}
	p.sel = i
	return p.activate()
}

// Draw renders the overlay in rect.
func (p *FilePicker) Draw(b backend.Backend, rect core.ScreenRect, th Theme) {
	if !p.open || rect.Height() < 5 || rect.Width() < 10 {
		return
	}
	fill(b, rect, th.Picker)
	drawBox(b, rect, th.Picker)

	title := " Open File "
	if len(p.exts) > 0 {
		title = fmt.Sprintf(" Open File (%s) ", strings.Join(p.exts, ", "))
	}
	drawText(b, rect.Left+2, rect.Top, rect.Right-1, title, th.Picker.Bold())

	inner := core.NewScreenRect(rect.Top+1, rect.Left+1, rect.Bottom-1, rect.Right-1)
	drawText(b, inner.Left, inner.Top, inner.Right, core.Truncate(p.dir, inner.Width(), "…"), th.PickerDir)

	list := p.listRect(rect)
	if p.err != nil {
		drawText(b, list.Left, list.Top-1, list.Right, p.err.Error(), th.StatusError)
	}
	rows := list.Height()
	if p.sel < p.scroll {
		p.scroll = p.sel
	}
	if rows > 0 && p.sel >= p.scroll+rows {
		p.scroll = p.sel - rows + 1
	}
	for i := 0; i < rows && p.scroll+i < len(p.entries); i++ {
		e := p.entries[p.scroll+i]
		style := th.Picker
		name := e.name
		if e.dir {
			style = th.PickerDir
			name += "/"
		}
		if p.scroll+i == p.sel {
			style = th.PickerSel
			fill(b, core.NewScreenRect(list.Top+i, list.Left, list.Top+i+1, list.Right), style)
		}
		drawText(b, list.Left+1, list.Top+i, list.Right, name, style)
	}
	if len(p.entries) == 0 && p.err == nil {
		drawText(b, list.Left+1, list.Top, list.Right, "(no matching files)", th.Placeholder)
	}

	drawText(b, inner.Left, inner.Bottom-1, inner.Right, "Enter open  Backspace up  Esc cancel", th.Picker.Dim())
}

// drawBox draws a single-line border around rect.
func drawBox(b backend.Backend, rect core.ScreenRect, style core.Style) {
	set := func(x, y int, r rune) {
		b.SetCell(x, y, core.Cell{Rune: r, Width: 1, Style: style})
	}
	for x := rect.Left + 1; x < rect.Right-1; x++ {
		set(x, rect.Top, '─')
		set(x, rect.Bottom-1, '─')
	}
	for y := rect.Top + 1; y < rect.Bottom-1; y++ {
		set(rect.Left, y, '│')
		set(rect.Right-1, y, '│')
	}
	set(rect.Left, rect.Top, '┌')
	set(rect.Right-1, rect.Top, '┐')
	set(rect.Left, rect.Bottom-1, '└')
	set(rect.Right-1, rect.Bottom-1, '┘')
}

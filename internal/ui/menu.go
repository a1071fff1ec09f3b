package ui

import (
	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
)

// ActionKind is a command issued from the menu bar or a shortcut.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCompile
	ActionOpenFile
	ActionToggleLog
	ActionToggleOption
	ActionReset
	ActionQuit
)

// Action is a command for the application. Flag is set for
// ActionToggleOption.
type Action struct {
	Kind ActionKind
	Flag compiler.Flag
}

type menuItem struct {
	label string
	key   string
	kind  ActionKind
	// options marks the item that opens the options dropdown.
	options bool
}

var menuItems = []menuItem{
	{label: "Compile", key: "F5", kind: ActionCompile},
	{label: "Open File", key: "F2", kind: ActionOpenFile},
	{label: "Options", key: "F3", options: true},
	{label: "Logs", key: "F4", kind: ActionToggleLog},
}

// itemWidth is the width of one menu entry, " Label Key ".
func itemWidth(it menuItem) int {
	return core.StringWidth(it.label) + core.StringWidth(it.key) + 3
}

// MenuBar is the top row with its options dropdown.
type MenuBar struct {
	open     bool
	selected int
}

// NewMenuBar creates a closed menu bar.
func NewMenuBar() *MenuBar {
	return &MenuBar{}
}

// IsOpen reports whether the options dropdown is shown.
func (m *MenuBar) IsOpen() bool { return m.open }

// OpenOptions shows the options dropdown with the first entry selected.
func (m *MenuBar) OpenOptions() {
	m.open = true
	m.selected = 0
}

// Close hides the options dropdown.
func (m *MenuBar) Close() { m.open = false }

// itemSpan returns the first and past-the-end columns of item i.
func itemSpan(i int) (start, end int) {
	x := 0
	for j, it := range menuItems {
		w := itemWidth(it)
		if j == i {
			return x, x + w
		}
		x += w + 1
	}
	return x, x
}

func optionsIndex() int {
	for i, it := range menuItems {
		if it.options {
			return i
		}
	}
	return 0
}

// Dropdown returns the area of the options dropdown below menu.
func (m *MenuBar) Dropdown(menu core.ScreenRect) core.ScreenRect {
	if !m.open {
		return core.ScreenRect{}
	}
	x, _ := itemSpan(optionsIndex())
	width := 0
	for _, f := range compiler.Flags() {
		width = max(width, core.StringWidth(f.Label())+6)
	}
	return core.RectFromSize(menu.Bottom, menu.Left+x, len(compiler.Flags()), width)
}

// Click handles a press at x, y. It returns the resulting action and
// whether the menu consumed the click.
func (m *MenuBar) Click(menu core.ScreenRect, x, y int) (Action, bool) {
	pos := core.ScreenPos{Row: y, Col: x}
	if drop := m.Dropdown(menu); drop.Contains(pos) {
		m.open = false
		return Action{Kind: ActionToggleOption, Flag: compiler.Flags()[y-drop.Top]}, true
	}
	if !menu.Contains(pos) {
		if m.open {
			m.open = false
			return Action{}, true
		}
		return Action{}, false
	}

	col := x - menu.Left
	for i, it := range menuItems {
		start, end := itemSpan(i)
		if col < start || col >= end {
			continue
		}
		if it.options {
			if m.open {
				m.open = false
			} else {
				m.OpenOptions()
			}
			return Action{}, true
		}
		m.open = false
		return Action{Kind: it.kind}, true
	}
	m.open = false
	return Action{}, true
}

// HandleKey drives the open dropdown from the keyboard. It returns false
// when the dropdown is closed and the key was not used.
func (m *MenuBar) HandleKey(ev backend.Event) (Action, bool) {
	if !m.open {
		return Action{}, false
	}
	flags := compiler.Flags()
	switch ev.Key {
	case backend.KeyUp:
		m.selected = (m.selected + len(flags) - 1) % len(flags)
	case backend.KeyDown:
		m.selected = (m.selected + 1) % len(flags)
	case backend.KeyEnter:
		m.open = false
		return Action{Kind: ActionToggleOption, Flag: flags[m.selected]}, true
	case backend.KeyEscape, backend.KeyF3:
		m.open = false
	case backend.KeyRune:
		if ev.Rune == ' ' {
			return Action{Kind: ActionToggleOption, Flag: flags[m.selected]}, true
		}
	}
	return Action{}, true
}

// Draw renders the bar in menu and, when open, the dropdown below it.
func (m *MenuBar) Draw(b backend.Backend, menu core.ScreenRect, opts compiler.Options, logVisible bool, th Theme) {
	fill(b, menu, th.Menu)
	for i, it := range menuItems {
		start, _ := itemSpan(i)
		x := menu.Left + start
		style, keyStyle := th.Menu, th.MenuKey
		if (it.options && m.open) || (it.kind == ActionToggleLog && logVisible) {
			style, keyStyle = th.MenuActive, th.MenuActive
		}
		x = drawText(b, x, menu.Top, menu.Right, " "+it.label+" ", style)
		x = drawText(b, x, menu.Top, menu.Right, it.key, keyStyle)
		drawText(b, x, menu.Top, menu.Right, " ", style)
	}

	drop := m.Dropdown(menu)
	if drop.IsEmpty() {
		return
	}
	for i, f := range compiler.Flags() {
		y := drop.Top + i
		style := th.Picker
		if i == m.selected {
			style = th.PickerSel
		}
		fill(b, core.NewScreenRect(y, drop.Left, y+1, drop.Right), style)
		mark := "[ ] "
		if opts.Get(f) {
			mark = "[x] "
		}
		drawText(b, drop.Left+1, y, drop.Right, mark+f.Label(), style)
	}
}

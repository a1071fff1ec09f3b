package ui

import (
	"fmt"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
	"github.com/dshills/astview/internal/source"
)

// tabWidth is the number of columns a tab advances to.
const tabWidth = 4

// EditorView shows the source buffer with highlighting and a cursor.
type EditorView struct {
	hl         *Highlighter
	scrollLine int
	scrollCol  int
}

// NewEditorView creates an editor view coloring text with hl.
func NewEditorView(hl *Highlighter) *EditorView {
	return &EditorView{hl: hl}
}

// Highlighter returns the highlighter in use.
func (e *EditorView) Highlighter() *Highlighter { return e.hl }

// Scroll returns the first visible line and column.
func (e *EditorView) Scroll() (line, col int) { return e.scrollLine, e.scrollCol }

// ScrollBy moves the view by lines without moving the cursor.
func (e *EditorView) ScrollBy(lines int, buf *source.Buffer) {
	e.scrollLine = max(0, min(buf.LineCount()-1, e.scrollLine+lines))
}

// displayWidth returns the columns taken by the first n runes of line.
func displayWidth(line string, n int) int {
	col := 0
	for i, r := range []rune(line) {
		if i >= n {
			break
		}
		col += runeCols(r, col)
	}
	return col
}

func runeCols(r rune, col int) int {
	if r == '\t' {
		return tabWidth - col%tabWidth
	}
	return core.RuneWidth(r)
}

// runeAt returns the rune index of line whose cell covers display column
// col, or the line length when col is past the end.
func runeAt(line string, col int) int {
	x := 0
	runes := []rune(line)
	for i, r := range runes {
		w := runeCols(r, x)
		if col < x+w {
			return i
		}
		x += w
	}
	return len(runes)
}

// follow scrolls so the cursor stays inside a view of width by height.
func (e *EditorView) follow(buf *source.Buffer, width, height int) {
	line, col := buf.Position()
	lines := buf.Lines()
	dcol := displayWidth(lines[line], col)

	if line < e.scrollLine {
		e.scrollLine = line
	}
	if height > 0 && line >= e.scrollLine+height {
		e.scrollLine = line - height + 1
	}
	if dcol < e.scrollCol {
		e.scrollCol = dcol
	}
	if width > 0 && dcol >= e.scrollCol+width {
		e.scrollCol = dcol - width + 1
	}
}

// Click moves the cursor to the character under column x, row y of rect.
func (e *EditorView) Click(buf *source.Buffer, rect core.ScreenRect, x, y int) {
	lines := buf.Lines()
	line := min(len(lines)-1, e.scrollLine+y-rect.Top)
	if line < 0 {
		return
	}
	buf.SetPosition(line, runeAt(lines[line], e.scrollCol+x-rect.Left))
}

// Draw renders the title bar and the text. The terminal cursor is placed
// when focused.
func (e *EditorView) Draw(b backend.Backend, title, rect core.ScreenRect, buf *source.Buffer, name string, focused bool, th Theme) {
	titleStyle := th.Border
	if focused {
		titleStyle = th.Focused
	}
	fill(b, title, th.Menu)
	label := fmt.Sprintf(" Source: %s ", name)
	x := drawText(b, title.Left, title.Top, title.Right, label, titleStyle)
	if !e.hl.Plain() {
		drawText(b, x, title.Top, title.Right, "("+e.hl.Language()+")", th.Border)
	}
	drawTextRight(b, x, title.Top, title.Right, fmt.Sprintf(" %d/%d ", buf.Len(), buf.Limit()), th.Border)

	fill(b, rect, th.Editor)
	if rect.IsEmpty() {
		return
	}
	e.follow(buf, rect.Width(), rect.Height())

	text := buf.String()
	styles := e.hl.Styles(text, th.Editor)
	lines := buf.Lines()
	for row := 0; row < rect.Height(); row++ {
		li := e.scrollLine + row
		if li >= len(lines) {
			break
		}
		e.drawLine(b, rect, rect.Top+row, lines[li], styles[li], th.Editor)
	}

	if !focused {
		b.HideCursor()
		return
	}
	line, col := buf.Position()
	cx := rect.Left + displayWidth(lines[line], col) - e.scrollCol
	cy := rect.Top + line - e.scrollLine
	if !rect.Contains(core.ScreenPos{Row: cy, Col: cx}) {
		b.HideCursor()
		return
	}
	b.ShowCursor(cx, cy)
}

func (e *EditorView) drawLine(b backend.Backend, rect core.ScreenRect, y int, line string, styles []core.Style, base core.Style) {
	col := 0
	for i, r := range []rune(line) {
		style := base
		if i < len(styles) {
			style = styles[i]
		}
		w := runeCols(r, col)
		x := rect.Left + col - e.scrollCol
		col += w
		if w == 0 || x+w <= rect.Left {
			continue
		}
		if x >= rect.Right {
			return
		}
		if r == '\t' {
			for j := 0; j < w; j++ {
				if x+j >= rect.Left && x+j < rect.Right {
					b.SetCell(x+j, y, core.Cell{Rune: ' ', Width: 1, Style: style})
				}
			}
			continue
		}
		if x < rect.Left || x+w > rect.Right {
			continue
		}
		b.SetCell(x, y, core.Cell{Rune: r, Width: w, Style: style})
	}
}

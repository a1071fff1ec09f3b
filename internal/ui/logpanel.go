package ui

import (
	"strings"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
)

// LogPanel shows the tail of the diagnostic log. It follows new output
// unless scrolled back.
type LogPanel struct {
	visible bool
	// back is how many lines the view is scrolled up from the end.
	back int
}

// NewLogPanel creates a hidden log panel.
func NewLogPanel() *LogPanel {
	return &LogPanel{}
}

// Visible reports whether the panel is shown.
func (p *LogPanel) Visible() bool { return p.visible }

// Toggle shows or hides the panel.
func (p *LogPanel) Toggle() {
	p.visible = !p.visible
	p.back = 0
}

// Scroll moves the view up (positive) or down (negative) by lines.
func (p *LogPanel) Scroll(lines int) {
	p.back = max(0, p.back+lines)
}

// logLines splits the log, dropping the empty line after the final newline.
func logLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Draw renders a title row and as many trailing log lines as fit.
func (p *LogPanel) Draw(b backend.Backend, rect core.ScreenRect, text string, th Theme) {
	if rect.IsEmpty() {
		return
	}
	title, body := rect.SplitTop(1)
	fill(b, title, th.LogTitle)
	fill(b, body, th.Log)

	lines := logLines(text)
	height := body.Height()
	p.back = min(p.back, max(0, len(lines)-height))
	end := len(lines) - p.back
	start := max(0, end-height)

	label := " Log "
	if p.back > 0 {
		label = " Log (scrolled, End to follow) "
	}
	drawText(b, title.Left, title.Top, title.Right, label, th.LogTitle)

	for i, line := range lines[start:end] {
		line = strings.ReplaceAll(line, "\t", "    ")
		drawText(b, body.Left+1, body.Top+i, body.Right, line, th.Log)
	}
}

// Scrolled reports whether the view is held back from the end.
func (p *LogPanel) Scrolled() bool { return p.visible && p.back > 0 }

// Follow returns the view to the end of the log.
func (p *LogPanel) Follow() { p.back = 0 }

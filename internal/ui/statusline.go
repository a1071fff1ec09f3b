package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
	"github.com/dshills/astview/internal/viewer"
)

// StatusInfo is what the status line shows for one frame.
type StatusInfo struct {
	State   viewer.State
	File    string
	Args    []string
	Stats   viewer.StatsSnapshot
	Focus   string
	Message string
	IsError bool
}

// StatusLine renders the bottom row: a state badge, the file, the compiler
// switches in use and the cycle statistics.
type StatusLine struct {
	stateStyles map[viewer.State]core.Style
}

// NewStatusLine creates a status line.
func NewStatusLine() *StatusLine {
	return &StatusLine{stateStyles: defaultStateStyles()}
}

func defaultStateStyles() map[viewer.State]core.Style {
	base := core.DefaultStyle().Bold()
	return map[viewer.State]core.Style{
		viewer.StateStartup:   base.WithBackground(core.ColorGray).WithForeground(core.ColorWhite),
		viewer.StateIdle:      base.WithBackground(core.ColorFromRGB(0, 120, 60)).WithForeground(core.ColorWhite),
		viewer.StateDirty:     base.WithBackground(core.ColorFromRGB(200, 160, 0)).WithForeground(core.ColorBlack),
		viewer.StateCompiling: base.WithBackground(core.ColorFromRGB(0, 90, 200)).WithForeground(core.ColorWhite),
	}
}

// Draw renders info on row.
func (s *StatusLine) Draw(b backend.Backend, row core.ScreenRect, info StatusInfo, th Theme) {
	fill(b, row, th.Status)
	if row.IsEmpty() {
		return
	}
	y := row.Top

	badgeStyle, ok := s.stateStyles[info.State]
	if !ok {
		badgeStyle = th.Status.Bold()
	}
	x := drawText(b, row.Left, y, row.Right, " "+strings.ToUpper(info.State.String())+" ", badgeStyle)
	x = drawText(b, x, y, row.Right, " ", th.Status)

	right := formatStats(info.Stats)
	if info.Focus != "" {
		right += " | " + info.Focus
	}
	limit := max(x, row.Right-core.StringWidth(right)-2)

	if info.Message != "" {
		style := th.Status
		if info.IsError {
			style = th.StatusError
		}
		drawText(b, x, y, limit, core.Truncate(info.Message, limit-x, "…"), style)
	} else {
		file := info.File
		if file == "" {
			file = "[scratch]"
		}
		left := file + "  tc " + strings.Join(info.Args, " ")
		drawText(b, x, y, limit, core.Truncate(left, limit-x, "…"), th.Status)
	}

	drawTextRight(b, limit, y, row.Right-1, right, th.Status)
}

// formatStats formats the right side, e.g. "cycles 3 (1 failed) | 12ms".
func formatStats(st viewer.StatsSnapshot) string {
	out := fmt.Sprintf("cycles %d", st.Cycles)
	if st.FailedCycles > 0 {
		out += fmt.Sprintf(" (%d failed)", st.FailedCycles)
	}
	if st.Cycles > 0 {
		out += " | " + st.LastCompile.Round(time.Millisecond).String()
	}
	return out
}

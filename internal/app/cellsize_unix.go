//go:build unix

package app

import (
	"os"

	"golang.org/x/sys/unix"
)

// cellPixelSize asks the terminal for the pixel size of one cell. Not every
// terminal reports pixel dimensions.
func cellPixelSize() (w, h int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 || ws.Xpixel == 0 || ws.Ypixel == 0 {
		return defaultCellWidth, defaultCellHeight
	}
	return int(ws.Xpixel / ws.Col), int(ws.Ypixel / ws.Row)
}

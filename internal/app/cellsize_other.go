//go:build !unix

package app

func cellPixelSize() (w, h int) {
	return defaultCellWidth, defaultCellHeight
}

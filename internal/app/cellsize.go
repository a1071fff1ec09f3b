package app

// Cell size assumed when the terminal does not report one.
const (
	defaultCellWidth  = 8
	defaultCellHeight = 16
)

// Package source holds the text being viewed: a fixed-capacity edit buffer
// and a watcher that reports when the file it was loaded from changes.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultCapacity is the buffer size in bytes. One byte is reserved, so the
// buffer holds at most DefaultCapacity-1 bytes of text.
const DefaultCapacity = 8192

// DefaultText is the buffer content at startup.
const DefaultText = `print("Hello World")`

// ErrInvalidCapacity is returned for a capacity too small to hold any text.
var ErrInvalidCapacity = errors.New("buffer capacity must be at least 2")

// Buffer is a fixed-capacity UTF-8 text buffer with a cursor. Text that does
// not fit is cut at the last whole rune that does.
type Buffer struct {
	data     []byte
	capacity int
	cursor   int // byte offset, always on a rune boundary
	goal     int // preferred column for vertical moves, -1 when unset
}

// NewBuffer creates a buffer of the given capacity holding initial.
func NewBuffer(capacity int, initial string) (*Buffer, error) {
	if capacity < 2 {
		return nil, ErrInvalidCapacity
	}
	b := &Buffer{
		data:     make([]byte, 0, capacity-1),
		capacity: capacity,
		goal:     -1,
	}
	b.Set(initial)
	return b, nil
}

// Capacity returns the capacity in bytes, including the reserved byte.
func (b *Buffer) Capacity() int { return b.capacity }

// Limit returns the largest number of text bytes the buffer holds.
func (b *Buffer) Limit() int { return b.capacity - 1 }

// Len returns the text length in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// String returns the text.
func (b *Buffer) String() string { return string(b.data) }

// Set replaces the text and moves the cursor to the start. It reports
// whether the text had to be truncated.
func (b *Buffer) Set(text string) (truncated bool) {
	n := fitLen(text, b.Limit())
	b.data = append(b.data[:0], text[:n]...)
	b.cursor = 0
	b.goal = -1
	return n < len(text)
}

// fitLen returns the longest prefix length of s that is at most limit bytes
// and does not split a rune.
func fitLen(s string, limit int) int {
	if len(s) <= limit {
		return len(s)
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// Load replaces the text with the content of r. It reads at most one byte
// past the limit, so the size of r does not matter.
func (b *Buffer) Load(r io.Reader) (truncated bool, err error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(b.capacity)))
	if err != nil {
		return false, err
	}
	return b.Set(string(data)), nil
}

// LoadResult describes a file load.
type LoadResult struct {
	Path      string
	Size      int64
	Loaded    int
	Truncated bool
}

// LoadFile replaces the text with the content of the file at path. On error
// the buffer is unchanged.
func (b *Buffer) LoadFile(path string) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return LoadResult{}, err
	}
	if info.IsDir() {
		return LoadResult{}, fmt.Errorf("%s is a directory", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, int64(b.capacity)))
	if err != nil {
		return LoadResult{}, err
	}
	truncated := b.Set(string(data))
	return LoadResult{Path: path, Size: info.Size(), Loaded: b.Len(), Truncated: truncated}, nil
}

// Cursor returns the cursor byte offset.
func (b *Buffer) Cursor() int { return b.cursor }

// SetCursor moves the cursor to off, clamped to the text and snapped back to
// a rune boundary.
func (b *Buffer) SetCursor(off int) {
	off = max(0, min(off, len(b.data)))
	for off > 0 && off < len(b.data) && !utf8.RuneStart(b.data[off]) {
		off--
	}
	b.cursor = off
	b.goal = -1
}

// Insert inserts r at the cursor. It returns false, leaving the text as it
// was, when r does not fit.
func (b *Buffer) Insert(r rune) bool {
	if r == utf8.RuneError || r < 0 {
		return false
	}
	var enc [utf8.UTFMax]byte
	n := utf8.EncodeRune(enc[:], r)
	return b.insertBytes(enc[:n])
}

// InsertString inserts as many whole runes of s as fit and returns the
// number of bytes inserted.
func (b *Buffer) InsertString(s string) int {
	n := fitLen(s, b.Limit()-len(b.data))
	if n == 0 {
		return 0
	}
	b.insertBytes([]byte(s[:n]))
	return n
}

func (b *Buffer) insertBytes(p []byte) bool {
	if len(b.data)+len(p) > b.Limit() {
		return false
	}
	b.data = append(b.data, p...)
	copy(b.data[b.cursor+len(p):], b.data[b.cursor:len(b.data)-len(p)])
	copy(b.data[b.cursor:], p)
	b.cursor += len(p)
	b.goal = -1
	return true
}

// Backspace deletes the rune before the cursor.
func (b *Buffer) Backspace() bool {
	if b.cursor == 0 {
		return false
	}
	_, size := utf8.DecodeLastRune(b.data[:b.cursor])
	b.data = append(b.data[:b.cursor-size], b.data[b.cursor:]...)
	b.cursor -= size
	b.goal = -1
	return true
}

// Delete deletes the rune after the cursor.
func (b *Buffer) Delete() bool {
	if b.cursor >= len(b.data) {
		return false
	}
	_, size := utf8.DecodeRune(b.data[b.cursor:])
	b.data = append(b.data[:b.cursor], b.data[b.cursor+size:]...)
	b.goal = -1
	return true
}

// MoveLeft moves the cursor one rune back.
func (b *Buffer) MoveLeft() {
	if b.cursor > 0 {
		_, size := utf8.DecodeLastRune(b.data[:b.cursor])
		b.cursor -= size
	}
	b.goal = -1
}

// MoveRight moves the cursor one rune forward.
func (b *Buffer) MoveRight() {
	if b.cursor < len(b.data) {
		_, size := utf8.DecodeRune(b.data[b.cursor:])
		b.cursor += size
	}
	b.goal = -1
}

// MoveHome moves the cursor to the start of its line.
func (b *Buffer) MoveHome() {
	b.cursor = b.lineStart(b.cursor)
	b.goal = -1
}

// MoveEnd moves the cursor to the end of its line.
func (b *Buffer) MoveEnd() {
	b.cursor = b.lineEnd(b.cursor)
	b.goal = -1
}

// MoveUp moves the cursor to the previous line, keeping its column where
// the line is long enough.
func (b *Buffer) MoveUp() {
	line, col := b.Position()
	if b.goal < 0 {
		b.goal = col
	}
	if line == 0 {
		b.cursor = 0
		return
	}
	b.cursor = b.offsetOf(line-1, b.goal)
}

// MoveDown moves the cursor to the next line.
func (b *Buffer) MoveDown() {
	line, col := b.Position()
	if b.goal < 0 {
		b.goal = col
	}
	if line >= b.LineCount()-1 {
		b.cursor = len(b.data)
		return
	}
	b.cursor = b.offsetOf(line+1, b.goal)
}

// Position returns the zero-based line and rune column of the cursor.
func (b *Buffer) Position() (line, col int) {
	start := b.lineStart(b.cursor)
	line = strings.Count(string(b.data[:start]), "\n")
	col = utf8.RuneCount(b.data[start:b.cursor])
	return line, col
}

// SetPosition moves the cursor to line and column, clamped to the text.
func (b *Buffer) SetPosition(line, col int) {
	b.cursor = b.offsetOf(max(0, line), max(0, col))
	b.goal = -1
}

// LineCount returns the number of lines. Empty text has one line.
func (b *Buffer) LineCount() int {
	return strings.Count(string(b.data), "\n") + 1
}

// Lines returns the text split into lines without their newlines.
func (b *Buffer) Lines() []string {
	return strings.Split(string(b.data), "\n")
}

func (b *Buffer) lineStart(off int) int {
	for off > 0 && b.data[off-1] != '\n' {
		off--
	}
	return off
}

func (b *Buffer) lineEnd(off int) int {
	for off < len(b.data) && b.data[off] != '\n' {
		off++
	}
	return off
}

// offsetOf returns the byte offset of line and column, clamping the column
// to the line length and the line to the last line.
func (b *Buffer) offsetOf(line, col int) int {
	off := 0
	for i := 0; i < line; i++ {
		next := b.lineEnd(off)
		if next >= len(b.data) {
			break
		}
		off = next + 1
	}
	end := b.lineEnd(off)
	for col > 0 && off < end {
		_, size := utf8.DecodeRune(b.data[off:])
		off += size
		col--
	}
	return off
}

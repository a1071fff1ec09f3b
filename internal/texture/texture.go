// Package texture holds rasterized diagrams ready for display.
//
// A Store plays the part a GPU texture API plays in a windowed program:
// Upload hands over a premultiplied RGBA pixel buffer and returns a handle,
// Delete releases it. The zero ID means "no image". Callers replacing an
// image upload the new one first and delete the old one only after the
// upload succeeded, so a failed render never leaves the display empty.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// ID is a texture handle. None is never a valid handle.
type ID uint32

// None is the handle meaning "no image".
const None ID = 0

// Filter selects how a texture is sampled when drawn at a different size.
type Filter int

const (
	// FilterNearest picks the closest source pixel.
	FilterNearest Filter = iota
	// FilterLinear interpolates between neighbouring source pixels.
	FilterLinear
)

// String returns the filter name.
func (f Filter) String() string {
	if f == FilterLinear {
		return "linear"
	}
	return "nearest"
}

func (f Filter) interpolator() xdraw.Interpolator {
	if f == FilterLinear {
		return xdraw.BiLinear
	}
	return xdraw.NearestNeighbor
}

// Params are sampling parameters fixed at upload time.
type Params struct {
	MinFilter Filter
	MagFilter Filter
}

// LinearParams uses linear filtering for minification and magnification.
func LinearParams() Params {
	return Params{MinFilter: FilterLinear, MagFilter: FilterLinear}
}

// Texture is an uploaded image.
type Texture struct {
	ID     ID
	Image  *image.RGBA
	Params Params
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.Image.Bounds().Dx() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.Image.Bounds().Dy() }

// Draw draws the sr region of the texture into the dr region of dst. When
// the regions differ in size the texture is resampled with the
// magnification or minification filter.
func (t *Texture) Draw(dst draw.Image, dr, sr image.Rectangle) {
	sr = sr.Intersect(t.Image.Bounds())
	if sr.Empty() || dr.Empty() {
		return
	}
	if dr.Dx() == sr.Dx() && dr.Dy() == sr.Dy() {
		draw.Draw(dst, dr, t.Image, sr.Min, draw.Src)
		return
	}
	filter := t.Params.MinFilter
	if dr.Dx()*dr.Dy() > sr.Dx()*sr.Dy() {
		filter = t.Params.MagFilter
	}
	filter.interpolator().Scale(dst, dr, t.Image, sr, draw.Src, nil)
}

// Store manages uploaded textures.
type Store interface {
	// Upload takes ownership of img and returns its handle.
	Upload(img *image.RGBA, p Params) (ID, error)
	// Delete releases a handle. Deleting None or an unknown handle is a no-op.
	Delete(id ID)
	// Get returns the texture for id.
	Get(id ID) (*Texture, bool)
}

// Errors returned by Upload.
var (
	ErrEmptyImage = errors.New("texture: empty image")
	ErrTooLarge   = errors.New("texture: image exceeds maximum size")
)

// DefaultMaxSize is the largest width or height Memory accepts.
const DefaultMaxSize = 16384

// Memory is an in-process Store.
type Memory struct {
	mu       sync.RWMutex
	next     ID
	textures map[ID]*Texture
	maxSize  int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		textures: make(map[ID]*Texture),
		maxSize:  DefaultMaxSize,
	}
}

// SetMaxSize changes the largest width or height accepted by Upload.
func (m *Memory) SetMaxSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSize = n
}

// Upload stores img under a fresh handle.
func (m *Memory) Upload(img *image.RGBA, p Params) (ID, error) {
	if img == nil || img.Bounds().Empty() {
		return None, ErrEmptyImage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b := img.Bounds()
	if m.maxSize > 0 && (b.Dx() > m.maxSize || b.Dy() > m.maxSize) {
		return None, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, b.Dx(), b.Dy(), m.maxSize)
	}

	m.next++
	if m.next == None {
		m.next++
	}
	id := m.next
	m.textures[id] = &Texture{ID: id, Image: img, Params: p}
	return id, nil
}

// Delete releases id.
func (m *Memory) Delete(id ID) {
	if id == None {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.textures, id)
}

// Get returns the texture for id.
func (m *Memory) Get(id ID) (*Texture, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.textures[id]
	return t, ok
}

// Len returns the number of live textures.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.textures)
}

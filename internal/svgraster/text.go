package svgraster

import (
	"image"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// faceCache hands out Go Regular faces by pixel size. Sizes are quantized to
// quarter pixels so zooming does not grow the cache without bound.
type faceCache struct {
	once  sync.Once
	err   error
	font  *opentype.Font
	mu    sync.Mutex
	faces map[int]font.Face
}

func (c *faceCache) face(px float64) (font.Face, error) {
	c.once.Do(func() {
		c.font, c.err = opentype.Parse(goregular.TTF)
		c.faces = make(map[int]font.Face)
	})
	if c.err != nil {
		return nil, c.err
	}

	key := int(math.Round(px * 4))
	if key < 1 {
		key = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(key) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	c.faces[key] = f
	return f, nil
}

// drawTexts draws every text run of doc onto img. vb maps user space to the
// image bounds.
func (c *faceCache) drawTexts(img *image.RGBA, doc *document, vb viewBox) error {
	b := img.Bounds()
	sx := float64(b.Dx()) / vb.w
	sy := float64(b.Dy()) / vb.h

	for _, run := range doc.texts {
		px := run.size * sy
		if px < 1 {
			// Unreadable at this zoom.
			continue
		}
		face, err := c.face(px)
		if err != nil {
			return err
		}

		d := &font.Drawer{Dst: img, Src: image.NewUniform(run.fill), Face: face}
		x := (run.x - vb.x) * sx
		y := (run.y - vb.y) * sy
		adv := float64(d.MeasureString(run.text)) / 64
		switch run.anchor {
		case "middle":
			x -= adv / 2
		case "end":
			x -= adv
		}
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
		d.DrawString(run.text)
	}
	return nil
}

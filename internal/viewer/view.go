package viewer

import (
	"fmt"
	"math"
	"time"

	"github.com/dshills/astview/internal/texture"
)

func (v *Viewer) clampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return v.cfg.MinZoom
	}
	return max(v.cfg.MinZoom, min(v.cfg.MaxZoom, z))
}

// SetZoom clamps z to the zoom range and re-renders the current image at
// the new scale without recompiling. With no image yet, only the factor
// changes; the next cycle renders at it. A render error leaves the previous
// raster displayed.
func (v *Viewer) SetZoom(z float64) error {
	z = v.clampZoom(z)
	if z == v.zoom {
		return nil
	}
	v.zoom = z
	if v.image.Texture == texture.None {
		return nil
	}
	return v.render()
}

// Pan moves the image by dx, dy. The offset is not bounded.
func (v *Viewer) Pan(dx, dy float64) {
	v.panX += dx
	v.panY += dy
}

// Reset fits the image into an area of availW by availH pixels: the zoom
// becomes the smaller of the width and height ratios, clamped to the zoom
// range, and the pan offset returns to zero. When the image size or the area
// is not positive nothing changes and ErrInvalidGeometry is returned.
func (v *Viewer) Reset(availW, availH int) error {
	natW, natH := v.image.NaturalWidth, v.image.NaturalHeight
	if natW <= 0 || natH <= 0 || availW <= 0 || availH <= 0 {
		err := fmt.Errorf("%w: image %dx%d, area %dx%d", ErrInvalidGeometry, natW, natH, availW, availH)
		v.logger.Warn("reset skipped: %v", err)
		return err
	}

	fit := min(float64(availW)/float64(natW), float64(availH)/float64(natH))
	v.panX, v.panY = 0, 0
	z := v.clampZoom(fit)
	if z == v.zoom {
		return nil
	}
	v.zoom = z
	return v.render()
}

// render rasterizes the stable image at the current zoom. The new texture
// replaces the old one only once it exists, and the old one is released
// after the swap.
func (v *Viewer) render() error {
	start := time.Now()
	r, err := v.deps.Rasterizer.Render(v.deps.Layout.ImagePath(), v.zoom)
	v.stats.RecordRender(time.Since(start), err != nil)
	if err != nil {
		v.log.Notef("error: %v", err)
		v.logger.Error("render failed: %v", err)
		return err
	}

	old := v.image.Texture
	v.image = Image{
		Texture:       r.Texture,
		Width:         r.Width,
		Height:        r.Height,
		NaturalWidth:  r.NaturalWidth,
		NaturalHeight: r.NaturalHeight,
	}
	if old != r.Texture {
		v.deps.Store.Delete(old)
	}
	return nil
}

// Package svgraster rasterizes the laid-out SVG diagram into a texture.
//
// Shapes are rasterized with oksvg/rasterx into a premultiplied RGBA buffer.
// The path rasterizer ignores <text>, so text runs are drawn afterwards with
// the Go fonts. The buffer is uploaded to a texture.Store with linear
// filtering.
package svgraster

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/dshills/astview/internal/logging"
	"github.com/dshills/astview/internal/texture"
)

// DefaultMaxPixels bounds the surface Render allocates.
const DefaultMaxPixels = 1 << 26

// Raster describes a successful render.
type Raster struct {
	// Texture is the uploaded image. The caller owns it.
	Texture texture.ID
	// Width and Height are the rasterized size in pixels.
	Width, Height int
	// NaturalWidth and NaturalHeight are the zoom-independent image size.
	NaturalWidth, NaturalHeight int
	// Zoom is the scale the image was rendered at.
	Zoom float64
}

// Stage names the step a render failed in.
type Stage string

// Render stages.
const (
	StageLoad      Stage = "load"
	StageSurface   Stage = "surface"
	StageRasterize Stage = "rasterize"
	StageUpload    Stage = "upload"
)

// RenderError reports a failed render. No texture exists when it is returned.
type RenderError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer loads SVG files and uploads them as textures.
type Renderer struct {
	store     texture.Store
	maxPixels int
	logger    *logging.Logger
	faces     faceCache
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxPixels sets the largest surface, in pixels, Render will allocate.
func WithMaxPixels(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxPixels = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Renderer uploading into store.
func New(store texture.Store, opts ...Option) *Renderer {
	r := &Renderer{
		store:     store,
		maxPixels: DefaultMaxPixels,
		logger:    logging.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("svgraster")
	return r
}

// Render rasterizes the SVG at path scaled by zoom and uploads the result.
// The target size is max(1, natural*zoom) on each axis.
func (r *Renderer) Render(path string, zoom float64) (Raster, error) {
	fail := func(stage Stage, err error) (Raster, error) {
		return Raster{}, &RenderError{Path: path, Stage: stage, Err: err}
	}

	if !(zoom > 0) {
		return fail(StageSurface, fmt.Errorf("zoom must be positive, got %v", zoom))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(StageLoad, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return fail(StageLoad, err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return fail(StageLoad, err)
	}

	natW, natH := doc.naturalSize()
	if natW <= 0 || natH <= 0 {
		return fail(StageLoad, fmt.Errorf("image has no size (%dx%d)", natW, natH))
	}

	vb := doc.viewBox
	if !vb.valid() {
		vb = viewBox{w: float64(natW), h: float64(natH)}
	}
	icon.ViewBox.X, icon.ViewBox.Y, icon.ViewBox.W, icon.ViewBox.H = vb.x, vb.y, vb.w, vb.h

	w := max(1, int(float64(natW)*zoom))
	h := max(1, int(float64(natH)*zoom))
	if w > r.maxPixels/h {
		return fail(StageSurface, fmt.Errorf("%dx%d exceeds %d pixels", w, h, r.maxPixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	if err := r.rasterize(icon, img); err != nil {
		return fail(StageRasterize, err)
	}
	if err := r.faces.drawTexts(img, doc, vb); err != nil {
		return fail(StageRasterize, err)
	}

	id, err := r.store.Upload(img, texture.LinearParams())
	if err != nil {
		return fail(StageUpload, err)
	}

	r.logger.Debug("rendered %s at %.2fx: %dx%d (natural %dx%d, %d text runs)",
		path, zoom, w, h, natW, natH, len(doc.texts))

	return Raster{
		Texture:       id,
		Width:         w,
		Height:        h,
		NaturalWidth:  natW,
		NaturalHeight: natH,
		Zoom:          zoom,
	}, nil
}

// rasterize draws the icon's paths onto a white page. The rasterizer panics
// on some degenerate geometry, which is reported as an error.
func (r *Renderer) rasterize(icon *oksvg.SvgIcon, img *image.RGBA) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rasterizer panic: %v", p)
		}
	}()

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	b := img.Bounds()
	icon.SetTarget(0, 0, float64(b.Dx()), float64(b.Dy()))
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b)
	dasher := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
	icon.Draw(dasher, 1.0)
	return nil
}

package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/renderer/core"
	"github.com/dshills/astview/internal/texture"
	"github.com/dshills/astview/internal/viewer"
)

// upperHalf is drawn with the upper pixel as foreground and the lower
// pixel as background.
const upperHalf = '▀'

const placeholderText = "No image. Edit the source or press F5."

// Placer shows a texture by reference instead of drawing it in cells.
// *texture.Kitty implements it.
type Placer interface {
	Place(id texture.ID, col, row int, src image.Rectangle) error
	Unplace(id texture.ID) error
}

type placement struct {
	id       texture.ID
	col, row int
	src      image.Rectangle
}

// ImageView draws the current diagram raster into the image area. Without
// a Placer every cell shows two vertically stacked pixels; with one the
// terminal draws the texture itself at its native resolution.
type ImageView struct {
	store        texture.Store
	placer       Placer
	cellW, cellH int

	want, shown placement
}

// NewImageView creates a half-block image view reading textures from store.
func NewImageView(store texture.Store) *ImageView {
	return &ImageView{store: store, cellW: 1, cellH: 2}
}

// NewPlacedImageView creates an image view that positions textures with p.
// cellW and cellH are the pixel size of one terminal cell.
func NewPlacedImageView(store texture.Store, p Placer, cellW, cellH int) *ImageView {
	return &ImageView{store: store, placer: p, cellW: max(1, cellW), cellH: max(1, cellH)}
}

// CellSize returns the pixel size of one cell.
func (v *ImageView) CellSize() (w, h int) { return v.cellW, v.cellH }

// PixelSize returns the pixel size of area, the space Reset fits into.
func (v *ImageView) PixelSize(area core.ScreenRect) (w, h int) {
	return area.Width() * v.cellW, area.Height() * v.cellH
}

// Draw renders img with its top-left corner offset by the pan offset.
func (v *ImageView) Draw(b backend.Backend, area core.ScreenRect, img viewer.Image, panX, panY float64, th Theme) {
	v.want = placement{}
	fill(b, area, th.Editor.WithBackground(th.ImageBg))
	if area.IsEmpty() {
		return
	}

	tex, ok := v.store.Get(img.Texture)
	if img.Texture == texture.None || !ok {
		v.drawPlaceholder(b, area, th)
		return
	}

	off := image.Pt(int(math.Round(panX)), int(math.Round(panY)))
	if v.placer != nil {
		v.plan(area, tex, off)
		return
	}

	w, h := v.PixelSize(area)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(toRGBA(th.ImageBg)), image.Point{}, draw.Src)
	tex.Draw(canvas, tex.Image.Bounds().Sub(tex.Image.Bounds().Min).Add(off), tex.Image.Bounds())

	for row := 0; row < area.Height(); row++ {
		for col := 0; col < area.Width(); col++ {
			top := core.ColorFromImage(canvas.RGBAAt(col, row*2))
			bottom := core.ColorFromImage(canvas.RGBAAt(col, row*2+1))
			style := core.DefaultStyle().WithForeground(top).WithBackground(bottom)
			b.SetCell(area.Left+col, area.Top+row, core.Cell{Rune: upperHalf, Width: 1, Style: style})
		}
	}
}

// plan works out which part of tex is visible and where it starts. The
// placement is sent by Flush once the cells are on screen.
func (v *ImageView) plan(area core.ScreenRect, tex *texture.Texture, off image.Point) {
	w, h := v.PixelSize(area)
	onScreen := image.Rect(0, 0, w, h).Intersect(tex.Image.Bounds().Sub(tex.Image.Bounds().Min).Add(off))
	if onScreen.Empty() {
		return
	}
	// Placements start on a cell boundary.
	col := (onScreen.Min.X + v.cellW - 1) / v.cellW
	row := (onScreen.Min.Y + v.cellH - 1) / v.cellH
	start := image.Pt(col*v.cellW, row*v.cellH)
	src := image.Rectangle{Min: start, Max: onScreen.Max}.Sub(off)
	if src.Empty() {
		return
	}
	v.want = placement{id: tex.ID, col: area.Left + col, row: area.Top + row, src: src}
}

// Flush sends the placement planned by the last Draw when it differs from
// the one on screen. It does nothing for half-block views.
func (v *ImageView) Flush() error {
	if v.placer == nil || v.want == v.shown {
		return nil
	}
	if v.shown.id != texture.None && v.shown.id != v.want.id {
		if err := v.placer.Unplace(v.shown.id); err != nil {
			return err
		}
	}
	v.shown = placement{}
	if v.want.id == texture.None {
		return nil
	}
	if err := v.placer.Place(v.want.id, v.want.col, v.want.row, v.want.src); err != nil {
		return err
	}
	v.shown = v.want
	return nil
}

// Hide drops the planned placement so overlays drawn over the image area
// stay visible.
func (v *ImageView) Hide() {
	v.want = placement{}
}

// Invalidate forgets the placement on screen, forcing the next Flush to
// send it again. Call it after the terminal was cleared.
func (v *ImageView) Invalidate() {
	v.shown = placement{}
}

func (v *ImageView) drawPlaceholder(b backend.Backend, area core.ScreenRect, th Theme) {
	msg := core.Truncate(placeholderText, area.Width(), "")
	x := area.Left + (area.Width()-core.StringWidth(msg))/2
	y := area.Top + area.Height()/2
	drawText(b, x, y, area.Right, msg, th.Placeholder.WithBackground(th.ImageBg))
}

// DrawHeader renders the zoom label and the reset button.
func (v *ImageView) DrawHeader(b backend.Backend, header, reset core.ScreenRect, zoom float64, focused bool, th Theme) {
	fill(b, header, th.Menu)
	style := th.Border
	if focused {
		style = th.Focused
	}
	drawText(b, header.Left, header.Top, reset.Left, fmt.Sprintf(" Zoom: %.2fx ", zoom), style)
	drawText(b, reset.Left, reset.Top, reset.Right, resetLabel, th.Button)
}

func toRGBA(c core.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

package texture

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"io"
	"strings"
	"sync"
)

// kittyChunk is the largest base64 payload allowed in one graphics command.
const kittyChunk = 4096

// Kitty is a Store that also transmits every texture to a terminal speaking
// the kitty graphics protocol. The terminal keeps its own copy under the
// same ID, so drawing is a cheap placement command instead of a re-upload.
type Kitty struct {
	*Memory

	mu sync.Mutex
	w  io.Writer
}

// NewKitty creates a kitty store writing protocol commands to w.
func NewKitty(w io.Writer) *Kitty {
	return &Kitty{Memory: NewMemory(), w: w}
}

// Upload stores img and transmits it to the terminal.
func (k *Kitty) Upload(img *image.RGBA, p Params) (ID, error) {
	id, err := k.Memory.Upload(img, p)
	if err != nil {
		return None, err
	}
	if err := k.transmit(id, img); err != nil {
		k.Memory.Delete(id)
		return None, fmt.Errorf("kitty transmit: %w", err)
	}
	return id, nil
}

// Delete releases id locally and in the terminal.
func (k *Kitty) Delete(id ID) {
	if id == None {
		return
	}
	k.Memory.Delete(id)

	k.mu.Lock()
	defer k.mu.Unlock()
	_, _ = fmt.Fprintf(k.w, "\x1b_Ga=d,d=I,i=%d,q=2\x1b\\", id)
}

// Place shows the src region of texture id with its top-left corner at the
// given zero-based terminal cell.
func (k *Kitty) Place(id ID, col, row int, src image.Rectangle) error {
	if id == None || src.Empty() {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	_, err := fmt.Fprintf(k.w, "\x1b7\x1b[%d;%dH\x1b_Ga=p,i=%d,p=1,x=%d,y=%d,w=%d,h=%d,C=1,q=2\x1b\\\x1b8",
		row+1, col+1, id, src.Min.X, src.Min.Y, src.Dx(), src.Dy())
	return err
}

// Unplace removes the placement of id from the screen but keeps the image
// in the terminal.
func (k *Kitty) Unplace(id ID) error {
	if id == None {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	_, err := fmt.Fprintf(k.w, "\x1b_Ga=d,d=i,i=%d,p=1,q=2\x1b\\", id)
	return err
}

// transmit sends the image as raw 32-bit RGBA. The protocol expects straight
// alpha, so the premultiplied buffer is converted first.
func (k *Kitty) transmit(id ID, img *image.RGBA) error {
	b := img.Bounds()
	straight := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(straight, straight.Bounds(), img, b.Min, draw.Src)

	payload := base64.StdEncoding.EncodeToString(straight.Pix)

	k.mu.Lock()
	defer k.mu.Unlock()

	var sb strings.Builder
	for first := true; first || len(payload) > 0; first = false {
		n := min(kittyChunk, len(payload))
		chunk := payload[:n]
		payload = payload[n:]
		more := 0
		if len(payload) > 0 {
			more = 1
		}
		sb.WriteString("\x1b_G")
		if first {
			fmt.Fprintf(&sb, "a=t,f=32,s=%d,v=%d,i=%d,q=2,", b.Dx(), b.Dy(), id)
		}
		fmt.Fprintf(&sb, "m=%d;%s\x1b\\", more, chunk)
	}
	_, err := io.WriteString(k.w, sb.String())
	return err
}

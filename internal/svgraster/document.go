package svgraster

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// document is the part of an SVG file the path rasterizer does not expose:
// the intrinsic size in absolute units and the text runs. oksvg skips
// <text> elements and keeps width and height as bare numbers.
type document struct {
	width, height float64
	viewBox       viewBox
	texts         []textRun
}

type viewBox struct {
	x, y, w, h float64
}

func (v viewBox) valid() bool {
	return v.w > 0 && v.h > 0
}

// textRun is one <text> element with its position already mapped to user
// space of the root element.
type textRun struct {
	x, y   float64
	size   float64
	anchor string
	fill   color.RGBA
	text   string
}

// pxPer converts CSS absolute units to pixels at 96 dpi.
var pxPer = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
}

// parseLength parses an absolute SVG length. Relative lengths (% and font
// units) are reported as not ok.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	i := len(s)
	for i > 0 && (s[i-1] >= 'a' && s[i-1] <= 'z' || s[i-1] == '%') {
		i--
	}
	scale, ok := pxPer[s[i:]]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

// parseDocument scans the SVG for the root size and every text element.
func parseDocument(data []byte) (*document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	doc := &document{}
	var (
		stack  []frame
		inText *textRun
		sawSVG bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			attrs := attrMap(t.Attr)
			parent := frame{m: rasterx.Identity, fill: color.RGBA{A: 255}, size: 14, anchor: "start"}
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			f := parent.child(attrs)

			if t.Name.Local == "svg" && !sawSVG {
				sawSVG = true
				doc.width, _ = parseLength(attrs["width"])
				doc.height, _ = parseLength(attrs["height"])
				if vb := parseNumbers(attrs["viewBox"]); len(vb) == 4 {
					doc.viewBox = viewBox{vb[0], vb[1], vb[2], vb[3]}
				}
				f.m = rasterx.Identity
			}
			if t.Name.Local == "text" {
				x, y := f.m.Transform(firstNumber(attrs["x"]), firstNumber(attrs["y"]))
				inText = &textRun{
					x:      x,
					y:      y,
					size:   f.size * math.Hypot(f.m.C, f.m.D),
					anchor: f.anchor,
					fill:   f.fill,
				}
			}
			stack = append(stack, f)

		case xml.CharData:
			if inText != nil {
				inText.text += string(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if t.Name.Local == "text" && inText != nil {
				inText.text = strings.TrimSpace(inText.text)
				if inText.text != "" && inText.fill.A != 0 {
					doc.texts = append(doc.texts, *inText)
				}
				inText = nil
			}
		}
	}

	if !sawSVG {
		return nil, errors.New("no <svg> root element")
	}
	return doc, nil
}

// frame is the inherited state of an element.
type frame struct {
	m      rasterx.Matrix2D
	fill   color.RGBA
	size   float64
	anchor string
}

func (p frame) child(attrs map[string]string) frame {
	f := p
	if tr, ok := attrs["transform"]; ok {
		f.m = p.m.Mult(parseTransform(tr))
	}
	if v, ok := attrs["fill"]; ok {
		if c, ok := parseColor(v); ok {
			f.fill = c
		}
	}
	if v, ok := attrs["font-size"]; ok {
		if n, ok := parseLength(v); ok && n > 0 {
			f.size = n
		}
	}
	if v, ok := attrs["text-anchor"]; ok {
		f.anchor = v
	}
	return f
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	// Presentation attributes may also arrive through style="k:v;...".
	if style, ok := m["style"]; ok {
		for _, decl := range strings.Split(style, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if ok {
				m[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
	}
	return m
}

func firstNumber(s string) float64 {
	if nums := parseNumbers(s); len(nums) > 0 {
		return nums[0]
	}
	return 0
}

// parseColor reads a paint value with the same rules oksvg applies to
// shapes. "none" is transparent.
func parseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "transparent") {
		return color.RGBA{}, true
	}
	c, err := oksvg.ParseSVGColor(s)
	if err != nil {
		return color.RGBA{}, false
	}
	if c == nil {
		return color.RGBA{}, true
	}
	return color.RGBAModel.Convert(c).(color.RGBA), true
}

// naturalSize returns the intrinsic size in pixels, rounded to whole pixels.
// The root width and height win; the viewBox is the fallback.
func (d *document) naturalSize() (int, int) {
	w, h := d.width, d.height
	if w <= 0 {
		w = d.viewBox.w
	}
	if h <= 0 {
		h = d.viewBox.h
	}
	return int(math.Round(w)), int(math.Round(h))
}

// parseTransform parses an SVG transform attribute into one matrix. The
// functions compose left to right, so the last one listed applies to the
// coordinates first. Unknown functions and bad argument counts are skipped.
func parseTransform(s string) rasterx.Matrix2D {
	m := rasterx.Identity
	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			return m
		}
		closing := strings.IndexByte(s[open:], ')')
		if closing < 0 {
			return m
		}
		name := strings.ToLower(strings.Trim(s[:open], " \t\n,"))
		args := parseNumbers(s[open+1 : open+closing])
		s = s[open+closing+1:]

		switch n := len(args); {
		case name == "matrix" && n == 6:
			m = m.Mult(rasterx.Matrix2D{A: args[0], B: args[1], C: args[2], D: args[3], E: args[4], F: args[5]})
		case name == "translate" && n == 1:
			m = m.Translate(args[0], 0)
		case name == "translate" && n == 2:
			m = m.Translate(args[0], args[1])
		case name == "scale" && n == 1:
			m = m.Scale(args[0], args[0])
		case name == "scale" && n == 2:
			m = m.Scale(args[0], args[1])
		case name == "rotate" && n == 1:
			m = m.Rotate(args[0] * math.Pi / 180)
		case name == "rotate" && n == 3:
			m = m.Translate(args[1], args[2]).Rotate(args[0]*math.Pi/180).Translate(-args[1], -args[2])
		case name == "skewx" && n == 1:
			m = m.SkewX(args[0] * math.Pi / 180)
		case name == "skewy" && n == 1:
			m = m.SkewY(args[0] * math.Pi / 180)
		}
	}
}

func parseNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			nums = append(nums, v)
		}
	}
	return nums
}

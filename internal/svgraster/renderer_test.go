package svgraster

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/astview/internal/texture"
)

// graphSVG mirrors the shape of Graphviz output: point units, a viewBox and
// a flipping group transform.
const graphSVG = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<!-- Generated by graphviz -->
<svg width="300pt" height="150pt" viewBox="0.00 0.00 300.00 150.00" xmlns="http://www.w3.org/2000/svg">
<g id="graph0" class="graph" transform="scale(1 1) rotate(0) translate(4 146)">
<title>ast</title>
<polygon fill="white" stroke="none" points="-4,4 -4,-146 296,-146 296,4 -4,4"/>
<g id="node1" class="node">
<ellipse fill="none" stroke="black" cx="50" cy="-50" rx="30" ry="18"/>
<text text-anchor="middle" x="50" y="-46.3" font-family="Times,serif" font-size="14.00">Program</text>
</g>
</g>
</svg>
`

func writeSVG(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ast.svg")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write svg: %v", err)
	}
	return path
}

func TestRender_Dimensions(t *testing.T) {
	store := texture.NewMemory()
	r := New(store)
	path := writeSVG(t, graphSVG)

	tests := []struct {
		zoom          float64
		width, height int
	}{
		{1, 400, 200},
		{0.5, 200, 100},
		{2, 800, 400},
		{0.001, 1, 1},
	}
	for _, tt := range tests {
		res, err := r.Render(path, tt.zoom)
		if err != nil {
			t.Fatalf("Render(%v): %v", tt.zoom, err)
		}
		if res.Width != tt.width || res.Height != tt.height {
			t.Errorf("zoom %v: size %dx%d, want %dx%d", tt.zoom, res.Width, res.Height, tt.width, tt.height)
		}
		if res.NaturalWidth != 400 || res.NaturalHeight != 200 {
			t.Errorf("zoom %v: natural %dx%d, want 400x200", tt.zoom, res.NaturalWidth, res.NaturalHeight)
		}
		tex, ok := store.Get(res.Texture)
		if !ok {
			t.Fatalf("zoom %v: texture %d not uploaded", tt.zoom, res.Texture)
		}
		if tex.Width() != tt.width || tex.Height() != tt.height {
			t.Errorf("zoom %v: texture %dx%d", tt.zoom, tex.Width(), tex.Height())
		}
		if tex.Params != texture.LinearParams() {
			t.Errorf("zoom %v: expected linear filtering, got %+v", tt.zoom, tex.Params)
		}
	}
}

func TestRender_DrawsShapesAndText(t *testing.T) {
	store := texture.NewMemory()
	res, err := New(store).Render(writeSVG(t, graphSVG), 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	tex, _ := store.Get(res.Texture)

	if got := tex.Image.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("background pixel = %v, want white", got)
	}

	dark := 0
	b := tex.Image.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if tex.Image.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("expected the outline and label to leave dark pixels")
	}
}

func TestRender_ViewBoxFallback(t *testing.T) {
	store := texture.NewMemory()
	path := writeSVG(t, `<svg viewBox="0 0 120 80" xmlns="http://www.w3.org/2000/svg"><rect width="120" height="80" fill="black"/></svg>`)

	res, err := New(store).Render(path, 1)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.NaturalWidth != 120 || res.NaturalHeight != 80 {
		t.Errorf("natural %dx%d, want 120x80", res.NaturalWidth, res.NaturalHeight)
	}
}

func TestRender_Failures(t *testing.T) {
	dir := t.TempDir()
	sizeless := filepath.Join(dir, "sizeless.svg")
	if err := os.WriteFile(sizeless, []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 0o644); err != nil {
		t.Fatal(err)
	}
	garbage := filepath.Join(dir, "garbage.svg")
	if err := os.WriteFile(garbage, []byte("digraph { a -> b }"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := writeSVG(t, graphSVG)

	tests := []struct {
		name  string
		path  string
		zoom  float64
		opts  []Option
		stage Stage
	}{
		{"missing file", filepath.Join(dir, "missing.svg"), 1, nil, StageLoad},
		{"not svg", garbage, 1, nil, StageLoad},
		{"no size", sizeless, 1, nil, StageLoad},
		{"zero zoom", good, 0, nil, StageSurface},
		{"surface too large", good, 1, []Option{WithMaxPixels(100)}, StageSurface},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := texture.NewMemory()
			_, err := New(store, tt.opts...).Render(tt.path, tt.zoom)

			var renderErr *RenderError
			if !errors.As(err, &renderErr) {
				t.Fatalf("expected *RenderError, got %v", err)
			}
			if renderErr.Stage != tt.stage {
				t.Errorf("stage = %s, want %s", renderErr.Stage, tt.stage)
			}
			if store.Len() != 0 {
				t.Errorf("failed render left %d textures", store.Len())
			}
		})
	}
}

func TestRender_UploadFailure(t *testing.T) {
	store := texture.NewMemory()
	store.SetMaxSize(10)
	_, err := New(store).Render(writeSVG(t, graphSVG), 1)

	var renderErr *RenderError
	if !errors.As(err, &renderErr) || renderErr.Stage != StageUpload {
		t.Fatalf("expected upload failure, got %v", err)
	}
	if !errors.Is(err, texture.ErrTooLarge) {
		t.Errorf("expected wrapped ErrTooLarge, got %v", err)
	}
}

func TestParseDocument_TextRuns(t *testing.T) {
	doc, err := parseDocument([]byte(graphSVG))
	if err != nil {
		t.Fatalf("parseDocument: %v", err)
	}
	if len(doc.texts) != 1 {
		t.Fatalf("expected one text run, got %d", len(doc.texts))
	}
	run := doc.texts[0]
	if run.text != "Program" || run.anchor != "middle" {
		t.Errorf("unexpected run %+v", run)
	}
	if math.Abs(run.x-54) > 1e-9 || math.Abs(run.y-99.7) > 1e-9 || run.size != 14 {
		t.Errorf("run position (%v, %v) size %v, want (54, 99.7) size 14", run.x, run.y, run.size)
	}
}

func TestParseTransform(t *testing.T) {
	tests := []struct {
		in         string
		x, y       float64
		wantX, wan float64
	}{
		{"", 1, 2, 1, 2},
		{"translate(4 146)", 1, 2, 5, 148},
		{"scale(2) translate(10 0)", 1, 0, 22, 0},
		{"scale(1 1) rotate(0) translate(4 146)", 0, 0, 4, 146},
		{"rotate(90)", 1, 0, 0, 1},
		{"matrix(1,0,0,1,3,4)", 0, 0, 3, 4},
		{"skewX(45)", 1, 1, 2, 1},
		{"rotate(90 10 10)", 10, 0, 20, 10},
		{"translate(1) bogus(3)", 0, 0, 1, 0},
	}
	for _, tt := range tests {
		x, y := parseTransform(tt.in).Transform(tt.x, tt.y)
		if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wan) > 1e-9 {
			t.Errorf("%q applied to (%v,%v) = (%v,%v), want (%v,%v)", tt.in, tt.x, tt.y, x, y, tt.wantX, tt.wan)
		}
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"62pt", 62 * 96.0 / 72.0, true},
		{"100", 100, true},
		{"100px", 100, true},
		{"1in", 96, true},
		{"50%", 0, false},
		{"2em", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLength(tt.in)
		if ok != tt.ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseLength(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"black", color.RGBA{0, 0, 0, 255}, true},
		{"#ff0000", color.RGBA{255, 0, 0, 255}, true},
		{"#0f0", color.RGBA{0, 255, 0, 255}, true},
		{"#FFF", color.RGBA{255, 255, 255, 255}, true},
		{"rgb(0,0,255)", color.RGBA{0, 0, 255, 255}, true},
		{"lightgoldenrodyellow", color.RGBA{250, 250, 210, 255}, true},
		{"none", color.RGBA{}, true},
		{"transparent", color.RGBA{}, true},
		{"lightgoldenrod", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := parseColor(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseColor(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

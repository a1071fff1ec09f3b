package viewer

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/source"
	"github.com/dshills/astview/internal/svgraster"
	"github.com/dshills/astview/internal/texture"
)

type compileCall struct {
	text string
	args []string
}

// fakeCompiler wraps the text into a digraph, deterministically.
type fakeCompiler struct {
	calls       []compileCall
	diagnostics string
	empty       bool
	err         error
}

func (c *fakeCompiler) Compile(_ context.Context, text string, opts compiler.Options) (compiler.Output, error) {
	args := opts.Args()
	c.calls = append(c.calls, compileCall{text: text, args: args})
	out := compiler.Output{Diagnostics: c.diagnostics, Args: args}
	if c.err != nil {
		out.ExitCode = -1
		return out, c.err
	}
	if !c.empty {
		out.Diagram = "digraph { \"" + text + "\" }"
	}
	return out, nil
}

type fakeLayout struct {
	generated []string
	fail      bool
}

var errLayout = errors.New("dot: syntax error")

func (l *fakeLayout) Generate(_ context.Context, description string) error {
	if l.fail {
		return errLayout
	}
	l.generated = append(l.generated, description)
	return nil
}

func (l *fakeLayout) ImagePath() string { return "/tmp/ast.svg" }

// fakeRasterizer uploads a blank image sized like the real renderer would.
type fakeRasterizer struct {
	store      texture.Store
	natW, natH int
	zooms      []float64
	fail       bool
}

var errRender = errors.New("render: cannot load image")

func (r *fakeRasterizer) Render(_ string, zoom float64) (svgraster.Raster, error) {
	r.zooms = append(r.zooms, zoom)
	if r.fail {
		return svgraster.Raster{}, errRender
	}
	w := max(1, int(float64(r.natW)*zoom))
	h := max(1, int(float64(r.natH)*zoom))
	id, err := r.store.Upload(image.NewRGBA(image.Rect(0, 0, w, h)), texture.LinearParams())
	if err != nil {
		return svgraster.Raster{}, err
	}
	return svgraster.Raster{Texture: id, Width: w, Height: h, NaturalWidth: r.natW, NaturalHeight: r.natH, Zoom: zoom}, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type harness struct {
	v      *Viewer
	buf    *source.Buffer
	comp   *fakeCompiler
	layout *fakeLayout
	raster *fakeRasterizer
	store  *texture.Memory
	clock  *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	buf, err := source.NewBuffer(source.DefaultCapacity, source.DefaultText)
	if err != nil {
		t.Fatal(err)
	}
	store := texture.NewMemory()
	h := &harness{
		buf:    buf,
		comp:   &fakeCompiler{},
		layout: &fakeLayout{},
		raster: &fakeRasterizer{store: store, natW: 400, natH: 300},
		store:  store,
		clock:  &fakeClock{now: time.Unix(1700000000, 0)},
	}
	h.v = New(buf, Deps{
		Compiler:   h.comp,
		Layout:     h.layout,
		Rasterizer: h.raster,
		Store:      store,
	}, WithClock(h.clock))
	return h
}

// start runs the startup cycle and fails the test on error.
func (h *harness) start(t *testing.T) CycleResult {
	t.Helper()
	res, err := h.v.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return res
}

// tickFor advances the clock in frame-sized steps and counts the cycles run.
func (h *harness) tickFor(t *testing.T, d time.Duration) int {
	t.Helper()
	const frame = 16 * time.Millisecond
	cycles := 0
	for elapsed := time.Duration(0); elapsed < d; elapsed += frame {
		h.clock.Advance(frame)
		_, ran, err := h.v.Tick(context.Background())
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if ran {
			cycles++
		}
	}
	return cycles
}

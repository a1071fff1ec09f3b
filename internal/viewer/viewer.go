// Package viewer owns the state of the AST viewer and implements its compile
// cycle as an explicit state machine.
//
// All methods are meant to be called from a single goroutine, the frame
// loop. A compile cycle blocks that goroutine until the compiler, the layout
// tool and the rasterizer have finished:
//
//	text -> Compiler -> description -> Layout -> SVG file -> Rasterizer -> texture
//
// Recoverable failures (empty description, failed layout, failed render) are
// reported in the CycleResult and the diagnostic log; the previous image
// stays on screen. Failures of the compiler process itself are returned as
// errors.
package viewer

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/logging"
	"github.com/dshills/astview/internal/source"
	"github.com/dshills/astview/internal/svgraster"
	"github.com/dshills/astview/internal/texture"
)

// Errors returned by Viewer operations.
var (
	// ErrInvalidGeometry is returned by Reset when the image size or the
	// available area is not positive.
	ErrInvalidGeometry = errors.New("invalid geometry for reset")

	// ErrNoFile is returned by Reload when no file has been opened.
	ErrNoFile = errors.New("no file opened")
)

// Compiler turns source text into a diagram description.
type Compiler interface {
	Compile(ctx context.Context, text string, opts compiler.Options) (compiler.Output, error)
}

// Layout renders a diagram description to the SVG at ImagePath. It must
// leave the previous SVG untouched when it fails.
type Layout interface {
	Generate(ctx context.Context, description string) error
	ImagePath() string
}

// Rasterizer renders an SVG file into a texture.
type Rasterizer interface {
	Render(path string, zoom float64) (svgraster.Raster, error)
}

// Clock provides the time used for debouncing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Deps are the collaborators of a Viewer. Store must be the store the
// Rasterizer uploads into.
type Deps struct {
	Compiler   Compiler
	Layout     Layout
	Rasterizer Rasterizer
	Store      texture.Store
}

// Config holds the tunable behavior.
type Config struct {
	// CompileDelay is the quiet period after an edit. A cycle runs once
	// strictly more than this has passed since the last change.
	CompileDelay time.Duration
	MinZoom      float64
	MaxZoom      float64
	InitialZoom  float64
	// Options are the compile options at startup.
	Options compiler.Options
}

// DefaultConfig returns the built-in behavior.
func DefaultConfig() Config {
	return Config{
		CompileDelay: 500 * time.Millisecond,
		MinZoom:      0.05,
		MaxZoom:      3.5,
		InitialZoom:  1.0,
	}
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithConfig sets the configuration.
func WithConfig(cfg Config) Option {
	return func(v *Viewer) {
		v.cfg = cfg
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c Clock) Option {
	return func(v *Viewer) {
		if c != nil {
			v.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l
		}
	}
}

// Image is the currently displayed raster.
type Image struct {
	// Texture is None until the first successful render.
	Texture texture.ID
	// Width and Height are the raster size.
	Width, Height int
	// NaturalWidth and NaturalHeight are the size at zoom 1.
	NaturalWidth, NaturalHeight int
}

// Viewer is the application state: the source buffer, compile options,
// zoom and pan, the displayed image and the diagnostic log.
type Viewer struct {
	cfg    Config
	deps   Deps
	buf    *source.Buffer
	clock  Clock
	logger *logging.Logger

	state     State
	options   compiler.Options
	snapshot  string
	changedAt time.Time

	image      Image
	zoom       float64
	panX, panY float64

	openedPath string
	loaded     string

	log   DiagnosticLog
	stats Stats
}

// New creates a Viewer editing buf.
func New(buf *source.Buffer, deps Deps, opts ...Option) *Viewer {
	v := &Viewer{
		cfg:    DefaultConfig(),
		deps:   deps,
		buf:    buf,
		clock:  systemClock{},
		logger: logging.Discard,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.WithComponent("viewer")
	v.options = v.cfg.Options
	v.zoom = v.clampZoom(v.cfg.InitialZoom)
	v.snapshot = buf.String()
	return v
}

// State returns the current state.
func (v *Viewer) State() State { return v.state }

// Buffer returns the source buffer.
func (v *Viewer) Buffer() *source.Buffer { return v.buf }

// Options returns the compile options.
func (v *Viewer) Options() compiler.Options { return v.options }

// Zoom returns the zoom factor.
func (v *Viewer) Zoom() float64 { return v.zoom }

// ZoomRange returns the allowed zoom interval.
func (v *Viewer) ZoomRange() (lo, hi float64) { return v.cfg.MinZoom, v.cfg.MaxZoom }

// Offset returns the pan offset in image pixels.
func (v *Viewer) Offset() (x, y float64) { return v.panX, v.panY }

// Image returns the displayed image.
func (v *Viewer) Image() Image { return v.image }

// Log returns the diagnostic log.
func (v *Viewer) Log() *DiagnosticLog { return &v.log }

// Stats returns the cycle counters.
func (v *Viewer) Stats() StatsSnapshot { return v.stats.Snapshot() }

// OpenedPath returns the file last opened, or "".
func (v *Viewer) OpenedPath() string { return v.openedPath }

// Modified reports whether the buffer differs from the opened file as it
// was last read. It is false when no file is open.
func (v *Viewer) Modified() bool {
	return v.openedPath != "" && v.buf.String() != v.loaded
}

// Close releases the displayed texture.
func (v *Viewer) Close() {
	v.deps.Store.Delete(v.image.Texture)
	v.image = Image{}
}

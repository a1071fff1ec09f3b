// Package app provides the main application structure and coordination
// for astview. It wires the compile pipeline to the terminal, owns the
// frame loop and translates input into viewer operations.
package app

import (
	"context"
	"io"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/config"
	"github.com/dshills/astview/internal/diagram"
	"github.com/dshills/astview/internal/logging"
	"github.com/dshills/astview/internal/process"
	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/source"
	"github.com/dshills/astview/internal/svgraster"
	"github.com/dshills/astview/internal/texture"
	"github.com/dshills/astview/internal/ui"
	"github.com/dshills/astview/internal/viewer"
)

// shutdownTimeout bounds how long a running child may take to exit.
const shutdownTimeout = 2 * time.Second

// Application is the central coordinator. All viewer state is touched only
// by the goroutine running Run.
type Application struct {
	mu sync.Mutex

	// Infrastructure
	config    *config.Config
	logger    *logging.Logger
	logCloser io.Closer
	metrics   *Metrics

	// Compile pipeline
	supervisor *process.Supervisor
	compiler   *compiler.Compiler
	layout     *diagram.Layout
	buffer     *source.Buffer
	watcher    *source.Watcher

	// Display, created once the backend is initialized
	backend backend.Backend
	store   texture.Store
	viewer  *viewer.Viewer
	ui      *ui.UI

	input inputState

	// State
	ctx      context.Context
	cancel   context.CancelFunc
	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once

	// Options
	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty means the
	// default location, which may be absent.
	ConfigPath string

	// Config, when set, is used as is and ConfigPath is ignored.
	Config *config.Config

	// LogLevel overrides the configured log level when not empty.
	LogLevel string

	// File is opened at startup instead of compiling the initial text.
	File string
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		done:    make(chan struct{}),
		metrics: NewMetrics(),
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	if err := app.bootstrap(); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration
	cfg := app.opts.Config
	if cfg == nil {
		var err error
		if app.opts.ConfigPath != "" {
			cfg, err = config.Load(app.opts.ConfigPath)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}
	app.config = cfg

	// 2. Log file. The terminal owns the standard streams.
	level := cfg.Logging.Level
	if app.opts.LogLevel != "" {
		level = app.opts.LogLevel
	}
	logger, closer, err := logging.OpenFile(cfg.LogFile(), logging.ParseLevel(level))
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	app.logger, app.logCloser = logger.WithComponent("app"), closer

	// 3. Process supervision and the external tools
	procLog := logger.WithComponent("process")
	app.supervisor = process.NewSupervisor(process.WithProcessExitCallback(func(p *process.Process) {
		procLog.Debug("%s (pid %d) %s with status %d after %s", p.Name, p.PID(), p.State(), p.ExitCode(), p.Runtime())
	}))
	runner := process.NewExecRunner(app.supervisor)
	app.compiler = compiler.New(runner,
		compiler.WithPath(cfg.Compiler.Path),
		compiler.WithLogger(logger),
	)
	app.layout = diagram.New(runner,
		diagram.WithCommand(cfg.Layout.Command),
		diagram.WithPaths(cfg.DiagramPaths()),
		diagram.WithLogger(logger),
	)

	// 4. Source buffer
	buf, err := source.NewBuffer(cfg.Editor.Capacity, cfg.Editor.InitialText)
	if err != nil {
		return &InitError{Component: "buffer", Err: err}
	}
	app.buffer = buf

	// 5. File watcher, optional
	if cfg.Editor.WatchFile {
		w, err := source.NewWatcher(source.WithWatchLogger(logger))
		if err != nil {
			app.logger.Warn("file watching disabled: %v", err)
		} else {
			app.watcher = w
		}
	}

	app.logger.Info("compiler %s, layout %s, image %s", app.compiler.Path(), cfg.Layout.Command, app.layout.ImagePath())
	return nil
}

// SetBackend sets the terminal backend.
// Must be called before Run().
func (app *Application) SetBackend(b backend.Backend) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running.Load() {
		return ErrAlreadyRunning
	}

	app.backend = b
	return nil
}

// Run initializes the backend, runs the startup compile cycle and the main
// loop. It blocks until the user quits (ErrQuit), Shutdown is called (nil)
// or the compiler process fails (the error).
func (app *Application) Run() (err error) {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			perr := NewRecoveredPanicError(r, string(debug.Stack()))
			app.logger.Error("%v", perr)
			err = perr
		}
	}()

	if err := app.setup(); err != nil {
		return err
	}
	defer app.teardown()

	if err := app.startup(); err != nil {
		return err
	}

	return app.eventLoop()
}

// setup initializes the backend and builds everything that draws on it.
func (app *Application) setup() error {
	app.mu.Lock()
	b := app.backend
	app.mu.Unlock()
	if b == nil {
		return ErrNoBackend
	}

	if err := b.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}

	cfg := app.config
	mem := texture.NewMemory()
	mem.SetMaxSize(cfg.Display.MaxImageSize)
	app.store = mem
	image := ui.NewImageView(mem)
	if cfg.Display.Graphics == config.GraphicsKitty {
		if w, ok := b.Writer(); ok {
			kitty := texture.NewKitty(w)
			kitty.SetMaxSize(cfg.Display.MaxImageSize)
			cw, ch := cellPixelSize()
			app.store = kitty
			image = ui.NewPlacedImageView(kitty, kitty, cw, ch)
			app.logger.Info("kitty graphics with %dx%d pixel cells", cw, ch)
		} else {
			app.logger.Warn("kitty graphics need a terminal stream, falling back to half blocks")
		}
	}

	app.ui = ui.New(ui.NewHighlighter(cfg.Editor.Theme, cfg.Editor.Syntax), image, cfg.Editor.Extensions)
	app.ui.Resize(b.Size())

	app.viewer = viewer.New(app.buffer, viewer.Deps{
		Compiler:   app.compiler,
		Layout:     app.layout,
		Rasterizer: svgraster.New(app.store, svgraster.WithLogger(app.logger)),
		Store:      app.store,
	},
		viewer.WithConfig(viewer.Config{
			CompileDelay: cfg.Viewer.CompileDelay.Std(),
			MinZoom:      cfg.Viewer.MinZoom,
			MaxZoom:      cfg.Viewer.MaxZoom,
			InitialZoom:  cfg.Viewer.InitialZoom,
		}),
		viewer.WithLogger(app.logger),
	)
	return nil
}

// teardown releases what setup created, in reverse order.
func (app *Application) teardown() {
	if app.viewer != nil {
		app.viewer.Close()
	}
	app.backend.Shutdown()
	app.logger.Info("frame metrics: %s", app.metrics.Snapshot())
}

// startup runs the first compile cycle, on the file named in the options
// or on the initial text. A file that cannot be read falls back to the
// initial text and its error stays in the status line.
func (app *Application) startup() error {
	var openErr error
	if path := app.opts.File; path != "" {
		res, err := app.viewer.Open(app.ctx, path)
		if err == nil || isCompilerError(err) {
			app.opened(path)
			return app.afterCycle(res, err)
		}
		openErr = err
	}

	res, err := app.viewer.Start(app.ctx)
	if err := app.afterCycle(res, err); err != nil {
		return err
	}
	if openErr != nil {
		app.ui.SetMessage(openErr.Error(), true)
	}
	return nil
}

// Shutdown asks Run to return. It may be called from any goroutine and
// more than once. A compile cycle in progress is cut short by terminating
// the child.
func (app *Application) Shutdown() {
	app.stopOnce.Do(func() {
		close(app.done)
		app.cancel()
		if app.supervisor != nil {
			app.supervisor.Shutdown(shutdownTimeout)
		}
	})
}

// Close releases the watcher, any remaining child process and the log
// file. Call it after Run has returned. Later calls do nothing.
func (app *Application) Close() error {
	app.Shutdown()

	errs := NewErrorList()
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			app.logger.Warn("close watcher: %v", err)
			errs.Add(NewOperationError("close", "watcher", err))
		}
		app.watcher = nil
	}
	if app.logCloser != nil {
		if err := app.logCloser.Close(); err != nil {
			errs.Add(NewOperationError("close", app.config.LogFile(), err))
		}
		app.logCloser = nil
	}
	return errs.AsError()
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the configuration in use.
func (app *Application) Config() *config.Config {
	return app.config
}

// Viewer returns the viewer. It is nil until Run has set up the backend.
func (app *Application) Viewer() *viewer.Viewer {
	return app.viewer
}

// UI returns the widgets. It is nil until Run has set up the backend.
func (app *Application) UI() *ui.UI {
	return app.ui
}

// Metrics returns the frame loop metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

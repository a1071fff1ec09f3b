package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/diagram"
)

// CycleResult describes one compile cycle.
type CycleResult struct {
	// ID identifies the cycle in the operational log.
	ID      string
	Trigger Trigger
	// Args are the compiler arguments used.
	Args     []string
	ExitCode int
	// Rendered is true when the cycle produced a new image.
	Rendered bool
	// Err is the recoverable failure that kept the previous image, if any.
	Err      error
	Duration time.Duration
}

// Start runs the startup compile cycle.
func (v *Viewer) Start(ctx context.Context) (CycleResult, error) {
	return v.Compile(ctx, TriggerStartup)
}

// Tick is called once per frame. It notices text changes and runs a
// debounced compile cycle once the text has been quiet for longer than the
// compile delay. ran reports whether a cycle was run.
func (v *Viewer) Tick(ctx context.Context) (res CycleResult, ran bool, err error) {
	now := v.clock.Now()

	if text := v.buf.String(); text != v.snapshot {
		v.snapshot = text
		v.changedAt = now
		v.state = StateDirty
		return CycleResult{}, false, nil
	}

	if v.state == StateDirty && now.Sub(v.changedAt) > v.cfg.CompileDelay {
		res, err = v.Compile(ctx, TriggerDebounce)
		return res, true, err
	}
	return CycleResult{}, false, nil
}

// Compile runs a compile cycle now, bypassing the quiet period. The compiled
// text becomes the last-seen snapshot, so no debounced cycle follows for the
// same text. A returned error means the compiler process failed; pipeline
// failures are reported in CycleResult.Err instead.
func (v *Viewer) Compile(ctx context.Context, trigger Trigger) (CycleResult, error) {
	id := uuid.NewString()
	logger := v.logger.WithFields(map[string]any{"cycle": id[:8], "trigger": trigger.String()})
	start := time.Now()

	v.state = StateCompiling
	defer func() { v.state = StateIdle }()

	text := v.buf.String()
	v.snapshot = text

	res := CycleResult{ID: id, Trigger: trigger}

	out, err := v.deps.Compiler.Compile(ctx, text, v.options)
	res.Args = out.Args
	res.ExitCode = out.ExitCode
	if err != nil {
		if out.Diagnostics != "" {
			v.log.Append(out.Diagnostics + "\n")
		}
		v.log.Notef("error: %v", err)
		v.stats.RecordCycle(trigger, time.Since(start), true)
		logger.Error("compiler failed: %v", err)
		res.Err = err
		res.Duration = time.Since(start)
		return res, err
	}

	v.log.Append(out.Diagnostics + "\n")

	res.Err = v.refresh(ctx, out)
	if res.Err != nil {
		logger.Warn("compilation or SVG generation failed, keeping previous image: %v", res.Err)
	} else {
		res.Rendered = true
	}

	res.Duration = time.Since(start)
	v.stats.RecordCycle(trigger, res.Duration, res.Err != nil)
	logger.Info("cycle done in %s (args %v, exit %d, rendered %v)", res.Duration, res.Args, res.ExitCode, res.Rendered)
	return res, nil
}

// refresh lays out the description and renders the result.
func (v *Viewer) refresh(ctx context.Context, out compiler.Output) error {
	if out.Diagram == "" {
		return diagram.ErrEmptyDiagram
	}
	if err := v.deps.Layout.Generate(ctx, out.Diagram); err != nil {
		return err
	}
	return v.render()
}

// Open replaces the buffer with the file at path and runs a compile cycle.
// A file larger than the buffer is cut to fit and the cut is noted in the
// diagnostic log. When the file cannot be read the buffer is unchanged and
// no cycle runs.
func (v *Viewer) Open(ctx context.Context, path string) (CycleResult, error) {
	if err := v.load(path); err != nil {
		return CycleResult{}, err
	}
	v.openedPath = path
	return v.Compile(ctx, TriggerFileOpen)
}

// Reload reads the opened file again and runs a compile cycle.
func (v *Viewer) Reload(ctx context.Context) (CycleResult, error) {
	if v.openedPath == "" {
		return CycleResult{}, ErrNoFile
	}
	if err := v.load(v.openedPath); err != nil {
		return CycleResult{}, err
	}
	return v.Compile(ctx, TriggerFileChanged)
}

func (v *Viewer) load(path string) error {
	res, err := v.buf.LoadFile(path)
	if err != nil {
		v.log.Notef("error: cannot open %s: %v", path, err)
		v.logger.Warn("open %s: %v", path, err)
		return fmt.Errorf("open %s: %w", path, err)
	}
	if res.Truncated {
		v.log.Notef("warning: %s is %d bytes; only the first %d were loaded", path, res.Size, res.Loaded)
		v.logger.Warn("truncated %s from %d to %d bytes", path, res.Size, res.Loaded)
	}
	v.loaded = v.buf.String()
	return nil
}

// ToggleOption flips one compile option and runs a compile cycle with the
// new set.
func (v *Viewer) ToggleOption(ctx context.Context, f compiler.Flag) (CycleResult, error) {
	v.options = v.options.Toggle(f)
	v.logger.Debug("options now %s", v.options)
	return v.Compile(ctx, TriggerOption)
}

package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/source"
	"github.com/dshills/astview/internal/viewer"
)

const (
	targetFPS = 60
	frameTime = time.Second / targetFPS

	// inputQueueSize is how many terminal events may wait for the loop.
	// A compile cycle blocks the loop, so typing keeps queueing meanwhile.
	inputQueueSize = 256
)

// eventLoop is the main application loop. Terminal input, file changes and
// the frame ticker are all handled on this goroutine.
func (app *Application) eventLoop() error {
	stop := make(chan struct{})
	defer close(stop)
	events := app.startInputPolling(stop)

	var fileEvents <-chan source.Event
	var fileErrors <-chan error
	if app.watcher != nil {
		fileEvents = app.watcher.Events()
		fileErrors = app.watcher.Errors()
	}

	frameTicker := time.NewTicker(frameTime)
	defer frameTicker.Stop()

	if err := app.frame(); err != nil {
		return err
	}

	for {
		select {
		case <-app.done:
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			start := time.Now()
			err := app.handleBackendEvent(ev)
			app.metrics.RecordInput(time.Since(start))
			if err != nil {
				return err
			}

		case fev, ok := <-fileEvents:
			if !ok {
				fileEvents = nil
				continue
			}
			if err := app.handleFileChange(fev); err != nil {
				return err
			}

		case err, ok := <-fileErrors:
			if !ok {
				fileErrors = nil
				continue
			}
			app.logger.Warn("watch: %v", err)

		case <-frameTicker.C:
			if err := app.frame(); err != nil {
				return err
			}
		}
	}
}

// startInputPolling reads terminal events on their own goroutine, since
// PollEvent blocks. The channel is closed once the backend shuts down.
// Mouse events are dropped when the queue is full; keys and resizes wait.
func (app *Application) startInputPolling(stop <-chan struct{}) <-chan backend.Event {
	events := make(chan backend.Event, inputQueueSize)
	b := app.backend

	go func() {
		defer close(events)
		for {
			ev := b.PollEvent()
			if ev.Type == backend.EventClosed {
				return
			}

			if ev.Type == backend.EventMouse {
				select {
				case events <- ev:
				default:
					app.metrics.RecordInputDropped()
				}
				continue
			}

			select {
			case events <- ev:
			case <-stop:
				return
			case <-app.done:
				return
			}
		}
	}()

	return events
}

// frame advances the debounce timer and redraws the screen.
func (app *Application) frame() error {
	start := time.Now()

	res, ran, err := app.viewer.Tick(app.ctx)
	if ran {
		if err := app.afterCycle(res, err); err != nil {
			return err
		}
	}

	app.draw()
	app.metrics.RecordFrame(time.Since(start), frameTime)
	return nil
}

// draw renders the widgets and flushes the screen. Image placements go out
// after Show so that the cell contents they sit on are already there.
func (app *Application) draw() {
	start := time.Now()

	app.backend.Clear()
	app.ui.Draw(app.backend, app.viewer)
	app.backend.Show()
	if err := app.ui.Image.Flush(); err != nil {
		app.logger.Warn("image placement: %v", err)
	}

	app.metrics.RecordRender(time.Since(start))
}

// handleBackendEvent processes a backend event and routes it appropriately.
// Returns ErrQuit if the application should exit.
func (app *Application) handleBackendEvent(ev backend.Event) error {
	switch ev.Type {
	case backend.EventResize:
		app.ui.Resize(ev.Width, ev.Height)
		app.ui.Image.Invalidate()
		return nil
	case backend.EventKey:
		return app.handleKeyEvent(ev)
	case backend.EventMouse:
		return app.handleMouseEvent(ev)
	default:
		return nil
	}
}

// afterCycle reports the outcome of a compile cycle. A compiler process
// failure ends the loop; any other failure is shown in the status line and
// the previous image stays.
func (app *Application) afterCycle(res viewer.CycleResult, err error) error {
	if err != nil {
		if app.ctx.Err() != nil {
			// Interrupted by Shutdown.
			return nil
		}
		var ce *compiler.Error
		if errors.As(err, &ce) {
			return NewOperationError("compile", ce.Path, err)
		}
		app.ui.SetMessage(err.Error(), true)
		return nil
	}

	if res.Err != nil {
		app.ui.SetMessage(fmt.Sprintf("no new diagram: %v", res.Err), true)
		return nil
	}
	if res.Rendered {
		app.ui.SetMessage("", false)
	}
	return nil
}

// handleFileChange reloads the opened file after it changed on disk. Edits
// made since the last load are kept; Ctrl+R reloads anyway.
func (app *Application) handleFileChange(ev source.Event) error {
	if ev.Op.Has(source.OpRemove) {
		app.ui.SetMessage(fmt.Sprintf("%s was removed; editing the loaded copy", ev.Path), true)
		return nil
	}
	if app.viewer.Modified() {
		app.viewer.Log().Notef("warning: %s changed on disk; keeping unsaved edits", ev.Path)
		app.logger.Info("%s changed (%s), not reloading over edits", ev.Path, ev.Op)
		app.ui.SetMessage(fmt.Sprintf("%s changed on disk; Ctrl+R discards edits and reloads", ev.Path), true)
		return nil
	}

	app.logger.Debug("%s changed (%s), reloading", ev.Path, ev.Op)
	return app.reload()
}

func isCompilerError(err error) bool {
	var ce *compiler.Error
	return errors.As(err, &ce)
}

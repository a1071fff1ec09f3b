package source

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/astview/internal/logging"
)

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher is closed")

// DefaultWatchDelay is how long a file must be quiet before a change is
// reported.
const DefaultWatchDelay = 100 * time.Millisecond

// Op is the kind of change seen on the watched file.
type Op uint32

const (
	// OpWrite means the file content was written.
	OpWrite Op = 1 << iota
	// OpCreate means the file was created, usually by an atomic save.
	OpCreate
	// OpRemove means the file was removed or renamed away.
	OpRemove
)

// Has reports whether op includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// String returns the operation names joined with "|".
func (op Op) String() string {
	var names []string
	if op.Has(OpWrite) {
		names = append(names, "WRITE")
	}
	if op.Has(OpCreate) {
		names = append(names, "CREATE")
	}
	if op.Has(OpRemove) {
		names = append(names, "REMOVE")
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}

// Event reports a settled change to the watched file.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// Watcher follows a single file. It watches the file's directory so that
// editors which save by writing a new file and renaming it over the old one
// are still seen. Bursts of changes are coalesced into one Event after the
// file has been quiet for the configured delay.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	delay   time.Duration
	path    string // absolute path of the watched file, "" when none
	dir     string
	pending *pendingEvent
	logger  *logging.Logger

	events   chan Event
	errors   chan error
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDelay sets the quiet period.
func WithDelay(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l *logging.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher that is not yet following any file.
func NewWatcher(opts ...WatchOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		delay:   DefaultWatchDelay,
		logger:  logging.Discard,
		events:  make(chan Event, 16),
		errors:  make(chan error, 16),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("watch")

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts following path, replacing any previously watched file.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if abs == w.path {
		return nil
	}

	if dir != w.dir {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		if w.dir != "" {
			_ = w.fsw.Remove(w.dir)
		}
	}
	w.cancelPendingLocked()
	w.path, w.dir = abs, dir
	w.logger.Debug("watching %s", abs)
	return nil
}

// Path returns the watched file, or "" when none.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Events returns the channel of settled changes. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.cancelPendingLocked()
	w.mu.Unlock()

	w.closedWg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsw.Close()
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Remove) || fsOp.Has(fsnotify.Rename) {
		op |= OpRemove
	}
	return op
}

// handle coalesces events for the watched file and restarts the quiet
// period timer.
func (w *Watcher) handle(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.path == "" || filepath.Clean(ev.Name) != w.path {
		return
	}

	if p := w.pending; p != nil {
		p.event.Op |= op
		p.event.Timestamp = time.Now()
		p.timer.Reset(w.delay)
		return
	}

	p := &pendingEvent{event: Event{Path: w.path, Op: op, Timestamp: time.Now()}}
	p.timer = time.AfterFunc(w.delay, func() { w.fire(p) })
	w.pending = p
}

// fire sends p if it is still the pending event. The send never blocks, so
// it happens under the lock and cannot race with Close.
func (w *Watcher) fire(p *pendingEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.pending != p {
		return
	}
	w.pending = nil

	select {
	case w.events <- p.event:
	default:
		w.logger.Warn("event channel full, dropping change to %s", p.event.Path)
	}
}

func (w *Watcher) cancelPendingLocked() {
	if w.pending != nil {
		w.pending.timer.Stop()
		w.pending = nil
	}
}

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// State represents the state of a process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process has been started and not yet reaped.
	StateRunning
	// StateExited indicates the process exited on its own.
	StateExited
	// StateKilled indicates the process was terminated by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Process is a managed child process.
type Process struct {
	// ID is the unique identifier for this process.
	ID string

	// Name is a human-readable name, e.g. "compiler" or "layout".
	Name string

	// Cmd is the underlying exec.Cmd.
	Cmd *exec.Cmd

	// Stdin is the write side of the child's standard input, or nil if the
	// command supplied its own.
	Stdin io.WriteCloser

	// Stdout is the read side of the child's standard output, or nil.
	Stdout io.ReadCloser

	// Stderr is the read side of the child's standard error, or nil.
	Stderr io.ReadCloser

	// Started is the time the process was started.
	Started time.Time

	done     chan struct{}
	state    atomic.Int32
	exitCode atomic.Int32

	mu       sync.RWMutex
	exitErr  error
	finished time.Time

	waitOnce sync.Once
}

// NewProcess wraps cmd. The command must not have been started.
func NewProcess(id, name string, cmd *exec.Cmd) *Process {
	p := &Process{
		ID:   id,
		Name: name,
		Cmd:  cmd,
		done: make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1)
	return p
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the exit status, or -1 if the process has not been reaped
// or did not exit normally.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns the error reported by exec.Cmd.Wait, if any.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Done returns a channel closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// IsRunning reports whether the process was started and not yet reaped.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// PID returns the OS process ID, or -1 if not started.
func (p *Process) PID() int {
	if p.Cmd.Process == nil {
		return -1
	}
	return p.Cmd.Process.Pid
}

// Signal sends sig to the process.
func (p *Process) Signal(sig os.Signal) error {
	if !p.IsRunning() || p.Cmd.Process == nil {
		return fmt.Errorf("signal %s: %w", p.Name, ErrProcessNotStarted)
	}
	return p.Cmd.Process.Signal(sig)
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// Terminate sends SIGTERM to the process.
func (p *Process) Terminate() error {
	return p.Signal(syscall.SIGTERM)
}

func (p *Process) start() error {
	if p.State() != StateCreated {
		return ErrProcessAlreadyStarted
	}
	if err := p.Cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Name, err)
	}
	p.Started = time.Now()
	p.state.Store(int32(StateRunning))
	return nil
}

// Wait reaps the process and returns the error from exec.Cmd.Wait. It is
// safe to call more than once and from several goroutines; every caller
// observes the same result.
//
// Callers that read Stdout or Stderr must finish reading before calling Wait.
func (p *Process) Wait() error {
	if p.State() == StateCreated {
		return ErrProcessNotStarted
	}
	p.waitOnce.Do(p.reap)
	<-p.done
	return p.ExitError()
}

func (p *Process) reap() {
	err := p.Cmd.Wait()

	exitCode := 0
	state := StateExited
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				state = StateKilled
			}
		} else {
			exitCode = -1
		}
	}

	p.mu.Lock()
	p.exitErr = err
	p.finished = time.Now()
	p.mu.Unlock()

	p.exitCode.Store(int32(exitCode))
	p.state.Store(int32(state))
	close(p.done)
}

// Runtime returns how long the process ran, or has been running so far.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	p.mu.RLock()
	finished := p.finished
	p.mu.RUnlock()
	if finished.IsZero() {
		return time.Since(p.Started)
	}
	return finished.Sub(p.Started)
}

// Close closes the parent's ends of any piped streams. It does not signal
// the child.
func (p *Process) Close() error {
	var errs []error
	for _, c := range []struct {
		name string
		c    io.Closer
	}{
		{"stdin", p.Stdin},
		{"stdout", p.Stdout},
		{"stderr", p.Stderr},
	} {
		if c.c == nil {
			continue
		}
		if err := c.c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// Sentinel errors for the process package.
var (
	// ErrProcessNotStarted is returned when an operation needs a started process.
	ErrProcessNotStarted = errors.New("process not started")

	// ErrProcessAlreadyStarted is returned when starting a process twice.
	ErrProcessAlreadyStarted = errors.New("process already started")
)

package process

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Supervisor starts child processes and tracks them until they are reaped.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process
	closed    atomic.Bool

	onProcessExit func(p *Process)
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithProcessExitCallback sets a function called after each process is
// reaped.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// NewSupervisor creates a process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts cmd under a fresh random ID. Any of Stdin, Stdout and Stderr
// left nil on cmd is replaced by a pipe exposed on the returned Process.
func (s *Supervisor) Start(name string, cmd *exec.Cmd) (*Process, error) {
	return s.startWithID(uuid.New().String(), name, cmd)
}

func (s *Supervisor) startWithID(id, name string, cmd *exec.Cmd) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}
	if _, exists := s.processes[id]; exists {
		return nil, fmt.Errorf("process ID already exists: %s", id)
	}

	proc := NewProcess(id, name, cmd)

	if err := pipe(proc); err != nil {
		_ = proc.Close()
		return nil, err
	}
	if err := proc.start(); err != nil {
		_ = proc.Close()
		return nil, err
	}

	s.processes[id] = proc
	go s.monitor(proc)

	return proc, nil
}

func pipe(proc *Process) error {
	cmd := proc.Cmd
	if cmd.Stdin == nil {
		w, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("create stdin pipe: %w", err)
		}
		proc.Stdin = w
	}
	if cmd.Stdout == nil {
		r, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("create stdout pipe: %w", err)
		}
		proc.Stdout = r
	}
	if cmd.Stderr == nil {
		r, err := cmd.StderrPipe()
		if err != nil {
			return fmt.Errorf("create stderr pipe: %w", err)
		}
		proc.Stderr = r
	}
	return nil
}

func (s *Supervisor) monitor(proc *Process) {
	<-proc.Done()

	if s.onProcessExit != nil {
		func() {
			defer func() { _ = recover() }()
			s.onProcessExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// List returns all tracked processes.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		result = append(result, p)
	}
	return result
}

// Count returns the number of tracked processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Shutdown stops accepting new processes, sends SIGTERM to every tracked
// process and reaps them. Processes still alive after timeout are killed.
// Shutdown returns once every process has been removed.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	if s.closed.Swap(true) {
		return
	}

	procs := s.List()
	if len(procs) == 0 {
		return
	}

	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	done := make(chan struct{})
	go func() {
		for _, p := range procs {
			_ = p.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		for _, p := range procs {
			if p.IsRunning() {
				_ = p.Kill()
			}
		}
		<-done
	}

	s.waitForCleanup()
}

func (s *Supervisor) waitForCleanup() {
	for s.Count() > 0 {
		time.Sleep(time.Millisecond)
	}
}

// ErrSupervisorShutdown is returned by Start after Shutdown.
var ErrSupervisorShutdown = errors.New("supervisor is shutting down")

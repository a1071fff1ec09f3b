package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// chunkSize is the read size used to drain a child's output streams.
const chunkSize = 128

// Result is the captured outcome of a finished child process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Runtime  time.Duration
}

// Runner runs a program to completion, feeding it stdin and capturing both
// output streams. Run blocks until the child has exited.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) (Result, error)
}

// RunError reports a failure to create, feed or reap a child process. A
// child that runs and exits with a non-zero status is not a RunError; its
// status is reported in Result.ExitCode.
type RunError struct {
	Program string
	Op      string // "start", "write", "read" or "wait"
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Program, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ExecRunner implements Runner with os/exec under a Supervisor.
type ExecRunner struct {
	supervisor *Supervisor
}

// NewExecRunner creates a runner that registers its children with s.
func NewExecRunner(s *Supervisor) *ExecRunner {
	return &ExecRunner{supervisor: s}
}

// Run starts name with args, writes stdin and closes it, and drains stdout
// and stderr concurrently with the write so that a child producing more
// output than the pipe buffers hold cannot deadlock the exchange. The child
// is reaped only after both streams reach EOF.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, stdin []byte) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	proc, err := r.supervisor.Start(name, cmd)
	if err != nil {
		return Result{ExitCode: -1}, &RunError{Program: name, Op: "start", Err: err}
	}

	var (
		wg               sync.WaitGroup
		stdout, stderr   bytes.Buffer
		writeErr         error
		readOutErr       error
		readErrStreamErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		writeErr = writeAll(proc.Stdin, stdin)
	}()
	go func() {
		defer wg.Done()
		readOutErr = drain(&stdout, proc.Stdout)
	}()
	go func() {
		defer wg.Done()
		readErrStreamErr = drain(&stderr, proc.Stderr)
	}()
	wg.Wait()

	waitErr := proc.Wait()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: proc.ExitCode(),
		Runtime:  proc.Runtime(),
	}

	switch {
	case writeErr != nil:
		return res, &RunError{Program: name, Op: "write", Err: writeErr}
	case readOutErr != nil:
		return res, &RunError{Program: name, Op: "read", Err: readOutErr}
	case readErrStreamErr != nil:
		return res, &RunError{Program: name, Op: "read", Err: readErrStreamErr}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, &RunError{Program: name, Op: "wait", Err: waitErr}
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, &RunError{Program: name, Op: "wait", Err: ctxErr}
	}
	return res, nil
}

func writeAll(w io.WriteCloser, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			_ = w.Close()
			return err
		}
		data = data[n:]
	}
	return w.Close()
}

func drain(dst *bytes.Buffer, src io.Reader) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		dst.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

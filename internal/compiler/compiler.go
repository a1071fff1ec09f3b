// Package compiler invokes the external compiler that turns source text into
// a Graphviz description of its abstract syntax tree.
//
// The compiler is run as
//
//	./tc [-X] [-bB] [--rename] [-eE] --ast-dump -
//
// with the source text on standard input. Standard output carries the
// diagram description and standard error carries diagnostics.
package compiler

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/astview/internal/logging"
	"github.com/dshills/astview/internal/process"
)

// DefaultPath is the compiler executable used when none is configured.
const DefaultPath = "./tc"

// Output is the captured result of one compiler invocation.
type Output struct {
	// Diagram is everything the compiler wrote to standard output.
	Diagram string
	// Diagnostics is everything the compiler wrote to standard error.
	Diagnostics string
	// ExitCode is the compiler's exit status. It is recorded but does not
	// decide success; an empty Diagram does.
	ExitCode int
	// Args are the arguments the compiler was invoked with.
	Args []string
	// Duration is how long the child ran.
	Duration time.Duration
}

// Compiler runs the external compiler through a process.Runner.
type Compiler struct {
	path   string
	runner process.Runner
	logger *logging.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithPath sets the compiler executable.
func WithPath(path string) Option {
	return func(c *Compiler) {
		if path != "" {
			c.path = path
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Compiler that runs children through runner.
func New(runner process.Runner, opts ...Option) *Compiler {
	c := &Compiler{
		path:   DefaultPath,
		runner: runner,
		logger: logging.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("compiler")
	return c
}

// Path returns the compiler executable.
func (c *Compiler) Path() string {
	return c.path
}

// Compile runs the compiler synchronously on source with the given options
// and returns both captured streams. It blocks until the child exits. A
// returned error means the child could not be created, fed or reaped; it is
// never returned for a child that merely reports compile errors.
func (c *Compiler) Compile(ctx context.Context, source string, opts Options) (Output, error) {
	args := opts.Args()
	c.logger.Debug("running %s %v (%d bytes of input)", c.path, args, len(source))

	res, err := c.runner.Run(ctx, c.path, args, []byte(source))
	out := Output{
		Diagram:     string(res.Stdout),
		Diagnostics: string(res.Stderr),
		ExitCode:    res.ExitCode,
		Args:        args,
		Duration:    res.Runtime,
	}
	if err != nil {
		return out, &Error{Path: c.path, Args: args, Err: err}
	}

	c.logger.Debug("compiler exited with %d after %s: %d bytes diagram, %d bytes diagnostics",
		out.ExitCode, out.Duration, len(out.Diagram), len(out.Diagnostics))
	return out, nil
}

// Error reports that the compiler process itself failed: it could not be
// started, its input could not be written, or it could not be reaped.
type Error struct {
	Path string
	Args []string
	Err  error
}

func (e *Error) Error() string {
	return "compiler " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStartFailure reports whether err means the compiler could not be
// started at all.
func IsStartFailure(err error) bool {
	var runErr *process.RunError
	return errors.As(err, &runErr) && runErr.Op == "start"
}

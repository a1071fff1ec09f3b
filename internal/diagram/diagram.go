// Package diagram turns a Graphviz description into the SVG image the viewer
// displays.
//
// The description is written to a scratch file, laid out with
// `dot -Tsvg <scratch.dot> -o <scratch.svg>`, and the result is renamed over
// the stable image path only when dot succeeds. A failed layout therefore
// never disturbs the last good image.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/astview/internal/logging"
	"github.com/dshills/astview/internal/process"
)

// DefaultCommand is the layout program used when none is configured.
const DefaultCommand = "dot"

// Paths names the three files the layout step uses.
type Paths struct {
	// Dot is where the diagram description is written.
	Dot string
	// NewSVG is where the layout tool renders.
	NewSVG string
	// SVG is the stable image the viewer displays.
	SVG string
}

// DefaultPaths returns the file names used under dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Dot:    filepath.Join(dir, "ast.dot"),
		NewSVG: filepath.Join(dir, "ast_new.svg"),
		SVG:    filepath.Join(dir, "ast.svg"),
	}
}

// ErrEmptyDiagram is returned when there is no description to lay out.
var ErrEmptyDiagram = errors.New("empty diagram description")

// Error reports a failed layout run.
type Error struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "layout %s", e.Command)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	} else {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Layout renders diagram descriptions to the stable SVG path.
type Layout struct {
	command string
	paths   Paths
	runner  process.Runner
	logger  *logging.Logger
}

// Option configures a Layout.
type Option func(*Layout)

// WithCommand sets the layout program.
func WithCommand(cmd string) Option {
	return func(l *Layout) {
		if cmd != "" {
			l.command = cmd
		}
	}
}

// WithPaths sets the scratch and stable paths.
func WithPaths(p Paths) Option {
	return func(l *Layout) {
		l.paths = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Layout) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Layout that runs the layout program through runner.
func New(runner process.Runner, opts ...Option) *Layout {
	l := &Layout{
		command: DefaultCommand,
		paths:   DefaultPaths(os.TempDir()),
		runner:  runner,
		logger:  logging.Discard,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithComponent("diagram")
	return l
}

// ImagePath returns the stable SVG path.
func (l *Layout) ImagePath() string {
	return l.paths.SVG
}

// Paths returns the configured paths.
func (l *Layout) Paths() Paths {
	return l.paths
}

// Generate lays out description and, on success, replaces the stable image.
// On any failure the stable image is left as it was.
func (l *Layout) Generate(ctx context.Context, description string) error {
	if description == "" {
		return ErrEmptyDiagram
	}

	if err := os.MkdirAll(filepath.Dir(l.paths.Dot), 0o755); err != nil {
		return fmt.Errorf("create diagram directory: %w", err)
	}
	if err := os.WriteFile(l.paths.Dot, []byte(description), 0o644); err != nil {
		return fmt.Errorf("write diagram description: %w", err)
	}

	args := []string{"-Tsvg", l.paths.Dot, "-o", l.paths.NewSVG}
	res, err := l.runner.Run(ctx, l.command, args, nil)
	if err != nil {
		return &Error{Command: l.command, ExitCode: res.ExitCode, Stderr: string(res.Stderr), Err: err}
	}
	if res.ExitCode != 0 {
		return &Error{Command: l.command, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}

	if err := os.Rename(l.paths.NewSVG, l.paths.SVG); err != nil {
		return fmt.Errorf("replace %s: %w", l.paths.SVG, err)
	}
	l.logger.Debug("laid out %d bytes into %s", len(description), l.paths.SVG)
	return nil
}

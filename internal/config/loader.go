package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/astview/internal/logging"
)

// Errors returned by Load.
var (
	// ErrFileNotFound indicates the configuration file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrUnknownFormat indicates an extension other than .toml, .yaml or .yml.
	ErrUnknownFormat = errors.New("unknown config format")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes a setting with an unusable value.
type ValidationError struct {
	Key     string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Key, e.Value, e.Message)
}

// Load reads the file at path over the defaults and validates the result.
// A missing file returns ErrFileNotFound.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(path, data, cfg)
	case ".yaml", ".yml":
		err = decodeYAML(path, data, cfg)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the file at DefaultPath when it exists and returns the
// defaults otherwise.
func LoadDefault() (*Config, error) {
	path := DefaultPath()
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, ErrFileNotFound) {
		return Default(), nil
	}
	return cfg, err
}

func decodeTOML(path string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

func decodeYAML(path string, data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document is an empty configuration.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	var errs []error
	fail := func(key string, value any, msg string) {
		errs = append(errs, &ValidationError{Key: key, Value: value, Message: msg})
	}

	if c.Compiler.Path == "" {
		fail("compiler.path", c.Compiler.Path, "must not be empty")
	}
	if c.Layout.Command == "" {
		fail("layout.command", c.Layout.Command, "must not be empty")
	}
	for key, v := range map[string]string{
		"paths.dot_file":     c.Paths.DotFile,
		"paths.new_svg_file": c.Paths.NewSVGFile,
		"paths.svg_file":     c.Paths.SVGFile,
	} {
		if v == "" {
			fail(key, v, "must not be empty")
		}
	}
	if c.Paths.NewSVGFile == c.Paths.SVGFile {
		fail("paths.new_svg_file", c.Paths.NewSVGFile, "must differ from paths.svg_file")
	}
	if c.Editor.Capacity < 2 {
		fail("editor.capacity", c.Editor.Capacity, "must be at least 2")
	}
	if c.Viewer.CompileDelay <= 0 {
		fail("viewer.compile_delay", c.Viewer.CompileDelay, "must be positive")
	}
	if !(c.Viewer.MinZoom > 0) || c.Viewer.MaxZoom < c.Viewer.MinZoom {
		fail("viewer.min_zoom", c.Viewer.MinZoom, fmt.Sprintf("must be positive and not above max_zoom %v", c.Viewer.MaxZoom))
	}
	if c.Viewer.InitialZoom < c.Viewer.MinZoom || c.Viewer.InitialZoom > c.Viewer.MaxZoom {
		fail("viewer.initial_zoom", c.Viewer.InitialZoom, "must be within [min_zoom, max_zoom]")
	}
	switch c.Display.Graphics {
	case GraphicsHalfBlock, GraphicsKitty:
	default:
		fail("display.graphics", c.Display.Graphics, "must be halfblock or kitty")
	}
	if c.Display.MaxImageSize < 1 {
		fail("display.max_image_size", c.Display.MaxImageSize, "must be positive")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		fail("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}

	return errors.Join(errs...)
}

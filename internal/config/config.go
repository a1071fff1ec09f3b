// Package config provides the typed configuration for astview.
//
// Every setting has a default equal to the viewer's built-in behavior, so a
// missing configuration file changes nothing. Files are TOML or YAML,
// selected by extension:
//
//	[compiler]
//	path = "./tc"
//
//	[viewer]
//	compile_delay = "500ms"
//	max_zoom = 3.5
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/diagram"
	"github.com/dshills/astview/internal/source"
	"github.com/dshills/astview/internal/texture"
)

// Graphics modes.
const (
	GraphicsHalfBlock = "halfblock"
	GraphicsKitty     = "kitty"
)

// Config is the complete configuration.
type Config struct {
	Compiler CompilerConfig `toml:"compiler" yaml:"compiler"`
	Layout   LayoutConfig   `toml:"layout" yaml:"layout"`
	Paths    PathsConfig    `toml:"paths" yaml:"paths"`
	Editor   EditorConfig   `toml:"editor" yaml:"editor"`
	Viewer   ViewerConfig   `toml:"viewer" yaml:"viewer"`
	Display  DisplayConfig  `toml:"display" yaml:"display"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
}

// CompilerConfig configures the external compiler.
type CompilerConfig struct {
	// Path is the compiler executable.
	Path string `toml:"path" yaml:"path"`
}

// LayoutConfig configures the external layout tool.
type LayoutConfig struct {
	// Command is the layout executable, run as `<command> -Tsvg in -o out`.
	Command string `toml:"command" yaml:"command"`
}

// PathsConfig names the scratch files.
type PathsConfig struct {
	TempDir    string `toml:"temp_dir" yaml:"temp_dir"`
	DotFile    string `toml:"dot_file" yaml:"dot_file"`
	NewSVGFile string `toml:"new_svg_file" yaml:"new_svg_file"`
	SVGFile    string `toml:"svg_file" yaml:"svg_file"`
}

// EditorConfig configures the source editor.
type EditorConfig struct {
	// Capacity is the buffer size in bytes, one of which is reserved.
	Capacity int `toml:"capacity" yaml:"capacity"`
	// InitialText is the buffer content at startup.
	InitialText string `toml:"initial_text" yaml:"initial_text"`
	// Extensions are the file types offered by the open dialog.
	Extensions []string `toml:"extensions" yaml:"extensions"`
	// Syntax forces a highlighting lexer. Empty means detect.
	Syntax string `toml:"syntax" yaml:"syntax"`
	// Theme is the highlighting style.
	Theme string `toml:"theme" yaml:"theme"`
	// WatchFile reloads an opened file when it changes on disk.
	WatchFile bool `toml:"watch_file" yaml:"watch_file"`
}

// ViewerConfig configures compilation and zoom.
type ViewerConfig struct {
	// CompileDelay is the quiet period after an edit before recompiling.
	CompileDelay Duration `toml:"compile_delay" yaml:"compile_delay"`
	MinZoom      float64  `toml:"min_zoom" yaml:"min_zoom"`
	MaxZoom      float64  `toml:"max_zoom" yaml:"max_zoom"`
	InitialZoom  float64  `toml:"initial_zoom" yaml:"initial_zoom"`
}

// DisplayConfig configures how images reach the terminal.
type DisplayConfig struct {
	// Graphics is "halfblock" or "kitty".
	Graphics string `toml:"graphics" yaml:"graphics"`
	// MaxImageSize caps the raster width and height in pixels. A zoom that
	// would exceed it fails and keeps the previous raster.
	MaxImageSize int `toml:"max_image_size" yaml:"max_image_size"`
}

// LoggingConfig configures the operational log file.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File is the log file. Empty means astview.log in the temp directory.
	File string `toml:"file" yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Compiler: CompilerConfig{Path: compiler.DefaultPath},
		Layout:   LayoutConfig{Command: diagram.DefaultCommand},
		Paths: PathsConfig{
			TempDir:    os.TempDir(),
			DotFile:    "ast.dot",
			NewSVGFile: "ast_new.svg",
			SVGFile:    "ast.svg",
		},
		Editor: EditorConfig{
			Capacity:    source.DefaultCapacity,
			InitialText: source.DefaultText,
			Extensions:  []string{".tig", ".tih"},
			Theme:       "monokai",
			WatchFile:   true,
		},
		Viewer: ViewerConfig{
			CompileDelay: Duration(500 * time.Millisecond),
			MinZoom:      0.05,
			MaxZoom:      3.5,
			InitialZoom:  1.0,
		},
		Display: DisplayConfig{Graphics: GraphicsHalfBlock, MaxImageSize: texture.DefaultMaxSize},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DiagramPaths returns the scratch and stable image paths.
func (c *Config) DiagramPaths() diagram.Paths {
	return diagram.Paths{
		Dot:    filepath.Join(c.Paths.TempDir, c.Paths.DotFile),
		NewSVG: filepath.Join(c.Paths.TempDir, c.Paths.NewSVGFile),
		SVG:    filepath.Join(c.Paths.TempDir, c.Paths.SVGFile),
	}
}

// LogFile returns the log file path.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(os.TempDir(), "astview.log")
}

// DefaultPath returns the configuration file looked up when none is given:
// astview/config.toml under the user configuration directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "astview", "config.toml")
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String formats the duration.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

package app

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/dshills/astview/internal/compiler"
	"github.com/dshills/astview/internal/config"
	"github.com/dshills/astview/internal/renderer/backend"
	"github.com/dshills/astview/internal/source"
	"github.com/dshills/astview/internal/texture"
	"github.com/dshills/astview/internal/ui"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20">
<rect x="0" y="0" width="40" height="20" fill="#ff0000"/>
</svg>`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// testConfig points the pipeline at shell stand-ins for the compiler and
// the layout tool, both living in a temp directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Compiler.Path = writeScript(t, dir, "tc", "cat >/dev/null\necho 'digraph { a -> b }'\n")
	cfg.Layout.Command = writeScript(t, dir, "dot", "cat > \"$4\" <<'SVG'\n"+testSVG+"\nSVG\n")
	cfg.Paths.TempDir = filepath.Join(dir, "out")
	cfg.Logging.File = filepath.Join(dir, "astview.log")
	cfg.Logging.Level = "debug"
	cfg.Editor.WatchFile = false
	cfg.Viewer.CompileDelay = config.Duration(time.Millisecond)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, file string) (*Application, *backend.NullBackend) {
	t.Helper()
	app, err := New(Options{Config: cfg, File: file})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := app.Close(); err != nil {
			t.Errorf("Close() = %v", err)
		}
	})

	b := backend.NewNullBackend(100, 30)
	if err := app.SetBackend(b); err != nil {
		t.Fatalf("SetBackend() failed: %v", err)
	}
	return app, b
}

// startTestApp runs everything Run does before entering the loop.
func startTestApp(t *testing.T, cfg *config.Config, file string) (*Application, *backend.NullBackend) {
	t.Helper()
	app, b := newTestApp(t, cfg, file)
	if err := app.setup(); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	t.Cleanup(app.viewer.Close)
	if err := app.startup(); err != nil {
		t.Fatalf("startup() failed: %v", err)
	}
	return app, b
}

func key(k backend.Key) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: k}
}

func runeKey(r rune) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r}
}

func mouse(btn backend.MouseButton, x, y int) backend.Event {
	return backend.Event{Type: backend.EventMouse, MouseButton: btn, MouseX: x, MouseY: y}
}

func send(t *testing.T, app *Application, evs ...backend.Event) {
	t.Helper()
	for _, ev := range evs {
		if err := app.handleBackendEvent(ev); err != nil {
			t.Fatalf("event %+v: %v", ev, err)
		}
	}
}

func screenContains(b *backend.NullBackend, want string) bool {
	_, h := b.Size()
	for y := 0; y < h; y++ {
		if strings.Contains(b.Row(y), want) {
			return true
		}
	}
	return false
}

func TestNewApplication(t *testing.T) {
	cfg := testConfig(t)
	app, _ := newTestApp(t, cfg, "")

	if app.Config() != cfg {
		t.Error("expected the given config to be used")
	}
	if app.compiler == nil || app.layout == nil || app.buffer == nil || app.supervisor == nil {
		t.Error("expected the pipeline to be initialized")
	}
	if app.buffer.String() != cfg.Editor.InitialText {
		t.Errorf("buffer = %q, want the initial text", app.buffer.String())
	}
	if app.watcher != nil {
		t.Error("watching was disabled")
	}
	if app.Viewer() != nil || app.UI() != nil {
		t.Error("display parts exist only after setup")
	}
	if app.IsRunning() {
		t.Error("expected IsRunning() to be false before Run()")
	}
	if _, err := os.Stat(cfg.Logging.File); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestNewApplication_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[viewer\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(Options{ConfigPath: path})
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.Component != "config" {
		t.Fatalf("New() error = %v, want a config InitError", err)
	}
}

func TestApplication_ShutdownIdempotent(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t), "")

	app.Shutdown()
	app.Shutdown()
	if err := app.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

type failingCloser struct {
	io.Closer
	err error
}

func (c failingCloser) Close() error {
	_ = c.Closer.Close()
	return c.err
}

func TestApplication_CloseReportsErrors(t *testing.T) {
	app, err := New(Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	boom := errors.New("disk gone")
	app.logCloser = failingCloser{Closer: app.logCloser, err: boom}

	err = app.Close()
	if !errors.Is(err, boom) {
		t.Fatalf("Close() = %v, want the log close error", err)
	}
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Target != app.Config().LogFile() {
		t.Errorf("Close() = %v, want an OperationError naming the log file", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestApplication_LogsChildExits(t *testing.T) {
	cfg := testConfig(t)
	app, _ := startTestApp(t, cfg, "")
	app.Shutdown()

	deadline := time.Now().Add(5 * time.Second)
	for {
		data, err := os.ReadFile(cfg.LogFile())
		if err != nil {
			t.Fatal(err)
		}
		log := string(data)
		if strings.Contains(log, cfg.Compiler.Path+" (pid ") && strings.Contains(log, cfg.Layout.Command+" (pid ") {
			if !strings.Contains(log, "exited with status 0") {
				t.Errorf("exit status missing from log:\n%s", log)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("child exits not logged:\n%s", log)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestApplication_RunWithoutBackend(t *testing.T) {
	app, err := New(Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer app.Close()

	if err := app.Run(); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Run() = %v, want ErrNoBackend", err)
	}
	if app.IsRunning() {
		t.Error("Run() returned but still reports running")
	}
}

func TestStartup_RendersInitialText(t *testing.T) {
	app, b := startTestApp(t, testConfig(t), "")

	img := app.Viewer().Image()
	if img.Texture == texture.None {
		t.Fatal("expected an image after the startup cycle")
	}
	if img.NaturalWidth != 40 || img.NaturalHeight != 20 {
		t.Errorf("natural size = %dx%d, want 40x20", img.NaturalWidth, img.NaturalHeight)
	}
	if st := app.Viewer().Stats(); st.Cycles != 1 || st.FailedCycles != 0 {
		t.Errorf("stats = %+v, want one good cycle", st)
	}

	if err := app.frame(); err != nil {
		t.Fatalf("frame() failed: %v", err)
	}
	if b.Shows() != 1 {
		t.Errorf("Show called %d times, want 1", b.Shows())
	}
	if !screenContains(b, "▀") {
		t.Error("expected the diagram drawn with half blocks")
	}
	if !screenContains(b, " IDLE ") {
		t.Error("expected the idle state in the status line")
	}
	if got := app.Metrics().Snapshot(); got.FrameCount != 1 || got.RenderCount != 1 {
		t.Errorf("metrics = %+v", got)
	}
}

func TestStartup_MissingCompiler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Compiler.Path = filepath.Join(t.TempDir(), "no-such-tc")
	app, _ := newTestApp(t, cfg, "")
	if err := app.setup(); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	defer app.viewer.Close()

	err := app.startup()
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "compile" {
		t.Fatalf("startup() = %v, want a compile OperationError", err)
	}
	var ce *compiler.Error
	if !errors.As(err, &ce) {
		t.Error("expected the compiler error in the chain")
	}
	if !compiler.IsStartFailure(err) {
		t.Error("expected a start failure")
	}
}

func TestStartup_OpensFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.tig")
	if err := os.WriteFile(path, []byte("let var a := 1 in a end\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	app, b := startTestApp(t, testConfig(t), path)

	if got := app.buffer.String(); got != "let var a := 1 in a end\n" {
		t.Errorf("buffer = %q", got)
	}
	if app.Viewer().OpenedPath() != path {
		t.Errorf("opened = %q", app.Viewer().OpenedPath())
	}
	if msg, isErr := app.UI().Message(); msg != "" || isErr {
		t.Errorf("unexpected message %q", msg)
	}

	if err := app.frame(); err != nil {
		t.Fatal(err)
	}
	if !screenContains(b, "Source: prog.tig") {
		t.Error("expected the file name in the editor title")
	}
}

func TestStartup_MissingFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "gone.tig")
	app, _ := startTestApp(t, cfg, path)

	msg, isErr := app.UI().Message()
	if !isErr || !strings.Contains(msg, "open") {
		t.Errorf("message = %q (error %v), want the open failure", msg, isErr)
	}
	if app.buffer.String() != cfg.Editor.InitialText {
		t.Error("a failed open must leave the buffer unchanged")
	}
	if n := app.Viewer().Stats().Cycles; n != 1 {
		t.Errorf("startup ran %d cycles, want 1 on the initial text", n)
	}
	if app.Viewer().Image().Texture == texture.None {
		t.Error("the initial text should still be drawn")
	}
	if app.Viewer().OpenedPath() != "" {
		t.Errorf("OpenedPath() = %q", app.Viewer().OpenedPath())
	}
}

func TestStartup_ImageTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.MaxImageSize = 30
	app, _ := startTestApp(t, cfg, "")

	if app.Viewer().Image().Texture != texture.None {
		t.Error("a 40x20 diagram must not fit a 30 pixel limit")
	}
	if msg, isErr := app.UI().Message(); !isErr || !strings.Contains(msg, "maximum size") {
		t.Errorf("message = %q", msg)
	}
}

func TestEditing_DebouncedCompile(t *testing.T) {
	app, _ := startTestApp(t, testConfig(t), "")
	before := app.Viewer().Stats().Cycles

	send(t, app, key(backend.KeyEnd), runeKey('x'), key(backend.KeyEnter))
	if !strings.HasSuffix(app.buffer.String(), "x\n") {
		t.Fatalf("buffer = %q", app.buffer.String())
	}

	if err := app.frame(); err != nil {
		t.Fatal(err)
	}
	if app.Viewer().Stats().Cycles != before {
		t.Fatal("the edit frame must not compile")
	}

	time.Sleep(20 * time.Millisecond)
	if err := app.frame(); err != nil {
		t.Fatal(err)
	}
	if got := app.Viewer().Stats().Cycles; got != before+1 {
		t.Errorf("cycles = %d, want %d after the quiet period", got, before+1)
	}
}

func TestEditing_BufferFull(t *testing.T) {
	cfg := testConfig(t)
	cfg.Editor.Capacity = 4
	cfg.Editor.InitialText = "abc"
	app, _ := startTestApp(t, cfg, "")

	send(t, app, runeKey('d'))
	if app.buffer.String() != "abc" {
		t.Errorf("buffer = %q, want it unchanged", app.buffer.String())
	}
	if msg, isErr := app.UI().Message(); !isErr || !strings.Contains(msg, "buffer full") {
		t.Errorf("message = %q", msg)
	}
}

func TestKeys_Global(t *testing.T) {
	app, _ := startTestApp(t, testConfig(t), "")
	u := app.UI()

	send(t, app, key(backend.KeyF4))
	if !u.Log.Visible() {
		t.Error("F4 should show the log")
	}
	send(t, app, key(backend.KeyF6))
	if u.Focus() != ui.FocusImage {
		t.Error("F6 should focus the image")
	}
	send(t, app, key(backend.KeyF1))
	if msg, _ := u.Message(); !strings.Contains(msg, "F5 compile") {
		t.Errorf("F1 message = %q", msg)
	}

	before := app.Viewer().Stats().Cycles
	send(t, app, key(backend.KeyF5))
	if app.Viewer().Stats().Cycles != before+1 {
		t.Error("F5 should compile")
	}

	send(t, app, key(backend.KeyF3))
	if !u.Menu.IsOpen() {
		t.Fatal("F3 should open the options")
	}
	send(t, app, key(backend.KeyEnter))
	if !app.Viewer().Options().Get(compiler.FlagParse) {
		t.Error("Enter should toggle the first option")
	}
	if app.Viewer().Stats().Cycles != before+2 {
		t.Error("toggling an option should compile")
	}

	if err := app.handleBackendEvent(key(backend.KeyCtrlQ)); !errors.Is(err, ErrQuit) {
		t.Errorf("Ctrl+Q = %v, want ErrQuit", err)
	}
}

func TestKeys_EndFollowsScrolledLog(t *testing.T) {
	app, b := startTestApp(t, testConfig(t), "")
	u := app.UI()
	for i := 0; i < 40; i++ {
		app.Viewer().Log().Notef("line %d", i)
	}

	send(t, app, key(backend.KeyF4))
	u.Log.Scroll(10)
	app.draw()
	if !screenContains(b, "End to follow") {
		t.Fatal("scrolled log should offer End")
	}

	cursor := app.buffer.Cursor()
	send(t, app, key(backend.KeyEnd))
	if u.Log.Scrolled() {
		t.Error("End should return the log to its tail")
	}
	if app.buffer.Cursor() != cursor {
		t.Error("End went to the editor while the log was scrolled")
	}
	app.draw()
	if !screenContains(b, "line 39") || screenContains(b, "End to follow") {
		t.Error("log tail not shown after End")
	}

	send(t, app, key(backend.KeyEnd))
	if app.buffer.Cursor() != app.buffer.Len() {
		t.Error("End should reach the editor once the log follows")
	}
}

func TestKeys_ImageZoomPanReset(t *testing.T) {
	app, _ := startTestApp(t, testConfig(t), "")
	v := app.Viewer()
	app.UI().SetFocus(ui.FocusImage)

	send(t, app, runeKey('+'))
	if math.Abs(v.Zoom()-1.1) > 1e-9 {
		t.Errorf("zoom = %f, want 1.1", v.Zoom())
	}
	if v.Image().Width != 44 {
		t.Errorf("raster width = %d, want 44", v.Image().Width)
	}

	send(t, app, key(backend.KeyRight), key(backend.KeyDown))
	if x, y := v.Offset(); x != 4 || y != 8 {
		t.Errorf("offset = %v,%v, want 4,8", x, y)
	}

	send(t, app, runeKey('r'))
	w, h := app.UI().ImagePixels()
	want := math.Min(float64(w)/40, float64(h)/20)
	if math.Abs(v.Zoom()-want) > 1e-9 {
		t.Errorf("zoom after reset = %f, want %f", v.Zoom(), want)
	}
	if x, y := v.Offset(); x != 0 || y != 0 {
		t.Errorf("offset after reset = %v,%v", x, y)
	}

	send(t, app, key(backend.KeyEscape))
	if app.UI().Focus() != ui.FocusEditor {
		t.Error("Escape should return to the editor")
	}
}

func TestMouse_DragAndWheel(t *testing.T) {
	app, _ := startTestApp(t, testConfig(t), "")
	v := app.Viewer()
	l := app.UI().Layout()
	x, y := l.Image.Left+5, l.Image.Top+5

	send(t, app,
		mouse(backend.MouseLeft, x, y),
		mouse(backend.MouseLeft, x+2, y+1),
		mouse(backend.MouseLeft, x+3, y+1),
		mouse(backend.MouseNone, x+3, y+1),
	)
	if app.UI().Focus() != ui.FocusImage {
		t.Error("a press on the image should focus it")
	}
	if px, py := v.Offset(); px != 3 || py != 2 {
		t.Errorf("offset = %v,%v, want 3,2", px, py)
	}

	send(t, app, mouse(backend.MouseWheelUp, x, y))
	if math.Abs(v.Zoom()-1.1) > 1e-9 {
		t.Errorf("zoom = %f after wheel up", v.Zoom())
	}
	send(t, app, mouse(backend.MouseWheelDown, x, y))
	if math.Abs(v.Zoom()-1.0) > 1e-9 {
		t.Errorf("zoom = %f after wheel down", v.Zoom())
	}
}

func TestMouse_Slider(t *testing.T) {
	app, _ := startTestApp(t, testConfig(t), "")
	v := app.Viewer()
	s := app.UI().Layout().Slider

	send(t, app, mouse(backend.MouseLeft, s.Left+1, s.Top), mouse(backend.MouseNone, s.Left+1, s.Top))
	if lo, hi := v.ZoomRange(); math.Abs(v.Zoom()-hi) > 1e-9 {
		t.Errorf("zoom = %f, want the top of [%f, %f]", v.Zoom(), lo, hi)
	}

	send(t, app,
		mouse(backend.MouseLeft, s.Left+1, s.Top),
		mouse(backend.MouseLeft, s.Left+1, s.Bottom+5),
		mouse(backend.MouseNone, s.Left+1, s.Bottom+5),
	)
	if lo, _ := v.ZoomRange(); v.Zoom() != lo {
		t.Errorf("dragging past the track should clamp to %f, got %f", lo, v.Zoom())
	}
}

func TestMouse_MenuAndEditor(t *testing.T) {
	app, _ := startTestApp(t, testConfig(t), "")
	before := app.Viewer().Stats().Cycles

	send(t, app, mouse(backend.MouseLeft, 1, 0), mouse(backend.MouseNone, 1, 0))
	if app.Viewer().Stats().Cycles != before+1 {
		t.Error("clicking Compile should compile")
	}

	app.UI().SetFocus(ui.FocusImage)
	ed := app.UI().Layout().Editor
	send(t, app, mouse(backend.MouseLeft, ed.Left+3, ed.Top), mouse(backend.MouseNone, ed.Left+3, ed.Top))
	if app.UI().Focus() != ui.FocusEditor {
		t.Error("a click in the editor should focus it")
	}
	if line, col := app.buffer.Position(); line != 0 || col != 3 {
		t.Errorf("cursor = %d:%d, want 0:3", line, col)
	}
}

func TestPicker_OpenFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.tig")
	second := filepath.Join(dir, "b.tig")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	app, b := startTestApp(t, testConfig(t), first)
	u := app.UI()

	send(t, app, key(backend.KeyF2))
	if !u.Picker.IsOpen() {
		t.Fatal("F2 should open the picker")
	}
	abs, _ := filepath.Abs(dir)
	if u.Picker.Dir() != abs {
		t.Errorf("picker dir = %q, want %q", u.Picker.Dir(), abs)
	}

	if err := app.frame(); err != nil {
		t.Fatal(err)
	}
	if !screenContains(b, "b.tig") {
		t.Error("expected the picker listing on screen")
	}

	// "..", "a.tig", "b.tig"
	send(t, app, key(backend.KeyDown), key(backend.KeyDown), key(backend.KeyEnter))
	if u.Picker.IsOpen() {
		t.Error("picking a file should close the picker")
	}
	if app.buffer.String() != "b.tig" {
		t.Errorf("buffer = %q", app.buffer.String())
	}
	if filepath.Base(app.Viewer().OpenedPath()) != "b.tig" {
		t.Errorf("opened = %q", app.Viewer().OpenedPath())
	}
}

func TestFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.tig")
	if err := os.WriteFile(path, []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	app, _ := startTestApp(t, testConfig(t), path)

	if err := os.WriteFile(path, []byte("1 + 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := app.handleFileChange(source.Event{Path: path, Op: source.OpWrite}); err != nil {
		t.Fatal(err)
	}
	if app.buffer.String() != "1 + 2" {
		t.Errorf("buffer = %q after reload", app.buffer.String())
	}

	if err := app.handleFileChange(source.Event{Path: path, Op: source.OpRemove}); err != nil {
		t.Fatal(err)
	}
	if msg, _ := app.UI().Message(); !strings.Contains(msg, "removed") {
		t.Errorf("message = %q", msg)
	}
	if app.buffer.String() != "1 + 2" {
		t.Error("removal must keep the loaded text")
	}
}

func TestFileChange_KeepsEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.tig")
	if err := os.WriteFile(path, []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	app, _ := startTestApp(t, testConfig(t), path)

	send(t, app, key(backend.KeyEnd), runeKey('0'))
	if err := os.WriteFile(path, []byte("2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := app.handleFileChange(source.Event{Path: path, Op: source.OpWrite}); err != nil {
		t.Fatal(err)
	}
	if app.buffer.String() != "10" {
		t.Errorf("buffer = %q, edits should survive", app.buffer.String())
	}
	if !strings.Contains(app.Viewer().Log().String(), "keeping unsaved edits") {
		t.Errorf("log = %q", app.Viewer().Log().String())
	}
	if msg, isErr := app.UI().Message(); !isErr || !strings.Contains(msg, "Ctrl+R") {
		t.Errorf("message = %q", msg)
	}

	send(t, app, key(backend.KeyCtrlR))
	if app.buffer.String() != "2" {
		t.Errorf("buffer = %q after Ctrl+R", app.buffer.String())
	}
}

func TestResize(t *testing.T) {
	app, b := startTestApp(t, testConfig(t), "")

	b.Resize(60, 20)
	send(t, app, backend.Event{Type: backend.EventResize, Width: 60, Height: 20})
	if l := app.UI().Layout(); l.Width != 60 || l.Height != 20 {
		t.Errorf("layout = %dx%d", l.Width, l.Height)
	}
	if err := app.frame(); err != nil {
		t.Fatal(err)
	}
}

func TestRun_QuitKey(t *testing.T) {
	app, b := newTestApp(t, testConfig(t), "")
	b.PostEvent(key(backend.KeyCtrlQ))

	errc := make(chan error, 1)
	go func() { errc <- app.Run() }()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run() = %v, want ErrQuit", err)
		}
	case <-time.After(10 * time.Second):
		app.Shutdown()
		t.Fatal("Run() did not return")
	}
	if ev := b.PollEvent(); ev.Type != backend.EventClosed {
		t.Error("Run() should shut the backend down")
	}
}

func TestRun_Shutdown(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t), "")

	errc := make(chan error, 1)
	go func() { errc <- app.Run() }()
	time.Sleep(50 * time.Millisecond)
	app.Shutdown()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() = %v, want nil after Shutdown", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return after Shutdown")
	}
}

package process

import (
	"errors"
	"io"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func TestNewProcess(t *testing.T) {
	proc := NewProcess("test-id", "compiler", exec.Command("echo", "hello"))

	if proc.ID != "test-id" {
		t.Errorf("expected ID 'test-id', got %q", proc.ID)
	}
	if proc.State() != StateCreated {
		t.Errorf("expected state StateCreated, got %v", proc.State())
	}
	if proc.ExitCode() != -1 {
		t.Errorf("expected exit code -1, got %d", proc.ExitCode())
	}
	if proc.PID() != -1 {
		t.Errorf("expected PID -1 before start, got %d", proc.PID())
	}
	if proc.IsRunning() || proc.Runtime() != 0 {
		t.Error("expected a created process to be neither running nor exited")
	}
}

func TestProcess_StartAndWait(t *testing.T) {
	proc := NewProcess("test-id", "echo", exec.Command("echo", "hello"))

	if err := proc.start(); err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	if proc.State() != StateRunning {
		t.Errorf("expected state StateRunning, got %v", proc.State())
	}
	if proc.PID() <= 0 {
		t.Errorf("expected positive PID, got %d", proc.PID())
	}

	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if proc.State() != StateExited {
		t.Errorf("expected state StateExited, got %v", proc.State())
	}
	if proc.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", proc.ExitCode())
	}

	// A second Wait returns the same result without blocking.
	if err := proc.Wait(); err != nil {
		t.Errorf("second Wait: %v", err)
	}
}

func TestProcess_StartTwice(t *testing.T) {
	proc := NewProcess("test-id", "echo", exec.Command("echo", "hello"))
	if err := proc.start(); err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	defer proc.Wait()

	if err := proc.start(); !errors.Is(err, ErrProcessAlreadyStarted) {
		t.Errorf("expected ErrProcessAlreadyStarted, got %v", err)
	}
}

func TestProcess_WaitBeforeStart(t *testing.T) {
	proc := NewProcess("test-id", "echo", exec.Command("echo"))
	if err := proc.Wait(); !errors.Is(err, ErrProcessNotStarted) {
		t.Errorf("expected ErrProcessNotStarted, got %v", err)
	}
}

func TestProcess_ExitCode(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *exec.Cmd
		wantCode int
	}{
		{"success", exec.Command("true"), 0},
		{"failure", exec.Command("false"), 1},
		{"exit 42", exec.Command("sh", "-c", "exit 42"), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := NewProcess("test-id", tt.name, tt.cmd)
			if err := proc.start(); err != nil {
				t.Fatalf("failed to start process: %v", err)
			}
			_ = proc.Wait()

			if proc.ExitCode() != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, proc.ExitCode())
			}
		})
	}
}

func TestProcess_Kill(t *testing.T) {
	proc := NewProcess("test-id", "sleep", exec.Command("sleep", "10"))
	if err := proc.start(); err != nil {
		t.Fatalf("failed to start process: %v", err)
	}

	if err := proc.Kill(); err != nil {
		t.Fatalf("failed to kill process: %v", err)
	}

	waited := make(chan error, 1)
	go func() { waited <- proc.Wait() }()

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit after SIGKILL")
	}
	if proc.State() != StateKilled {
		t.Errorf("expected state StateKilled, got %v", proc.State())
	}
}

func TestProcess_SignalBeforeStart(t *testing.T) {
	proc := NewProcess("test-id", "echo", exec.Command("echo", "hello"))
	if err := proc.Signal(syscall.SIGTERM); !errors.Is(err, ErrProcessNotStarted) {
		t.Errorf("expected ErrProcessNotStarted, got %v", err)
	}
}

func TestProcess_Runtime(t *testing.T) {
	proc := NewProcess("test-id", "sleep", exec.Command("sleep", "0.05"))
	if proc.Runtime() != 0 {
		t.Errorf("expected runtime 0 before start, got %v", proc.Runtime())
	}
	if err := proc.start(); err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	_ = proc.Wait()

	first := proc.Runtime()
	if first < 50*time.Millisecond {
		t.Errorf("expected runtime >= 50ms, got %v", first)
	}
	time.Sleep(20 * time.Millisecond)
	if proc.Runtime() != first {
		t.Error("runtime kept growing after the process was reaped")
	}
}

func TestProcess_PipedRoundTrip(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Start("cat", exec.Command("cat"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	go func() {
		_, _ = io.WriteString(proc.Stdin, "digraph {}")
		_ = proc.Stdin.Close()
	}()
	out, err := io.ReadAll(proc.Stdout)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if _, err := io.ReadAll(proc.Stderr); err != nil {
		t.Fatalf("read stderr: %v", err)
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if string(out) != "digraph {}" {
		t.Errorf("expected echoed input, got %q", out)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "created"},
		{StateRunning, "running"},
		{StateExited, "exited"},
		{StateKilled, "killed"},
		{State(99), "unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State.String() = %q, want %q", got, tt.want)
		}
	}
}

package process

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/tyler-johnson/ttai/internal/logger"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestSpawnAndTerminate(t *testing.T) {
	skipOnWindows(t)

	h, err := Spawn(Spec{Name: "sleeper", Command: "sleep", Args: []string{"60"}})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if h.PID() <= 0 {
		t.Errorf("expected positive PID, got %d", h.PID())
	}
	if h.StartedAt().IsZero() {
		t.Error("expected StartedAt to be recorded")
	}
	if h.Name() != "sleeper" {
		t.Errorf("expected name sleeper, got %s", h.Name())
	}

	h.Terminate()

	// The process group must be gone after Terminate returns.
	if err := findProcessAlive(h.PID()); err == nil {
		t.Errorf("process %d still alive after Terminate", h.PID())
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	skipOnWindows(t)

	h, err := Spawn(Spec{Command: "sleep", Args: []string{"60"}})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	h.Terminate()
	h.Terminate() // second call must not panic or block
}

func TestSpawnMissingExecutable(t *testing.T) {
	_, err := Spawn(Spec{Command: "definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
	if !strings.Contains(err.Error(), "spawn") {
		t.Errorf("expected spawn error, got: %v", err)
	}
}

func TestSpawnInvalidWorkDir(t *testing.T) {
	_, err := Spawn(Spec{Command: "sleep", Args: []string{"1"}, WorkDir: "/no/such/dir"})
	if err == nil {
		t.Fatal("expected error for invalid workdir")
	}
}

func TestSpawnCapturesOutput(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	h, err := Spawn(Spec{
		Name:    "echoer",
		Command: "sh",
		Args:    []string{"-c", "echo hello-from-sidecar; sleep 60"},
		Log:     logger.Config{Dir: dir},
	})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	// Give the child a moment to write before killing it.
	deadline := time.Now().Add(2 * time.Second)
	path := filepath.Join(dir, "echoer.stdout.log")
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(path); err == nil && strings.Contains(string(b), "hello-from-sidecar") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	h.Terminate()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected captured stdout log: %v", err)
	}
	if !strings.Contains(string(b), "hello-from-sidecar") {
		t.Errorf("captured log missing output, got %q", string(b))
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{name: "valid", spec: Spec{Command: "sleep"}, wantErr: false},
		{name: "missing command", spec: Spec{}, wantErr: true},
		{name: "bad workdir", spec: Spec{Command: "sleep", WorkDir: "/no/such/dir"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpecDisplayName(t *testing.T) {
	s := Spec{Command: "sleep"}
	if got := s.displayName(); got != "sidecar" {
		t.Errorf("expected default display name sidecar, got %s", got)
	}
	s.Name = "mcp-server"
	if got := s.displayName(); got != "mcp-server" {
		t.Errorf("expected mcp-server, got %s", got)
	}
}

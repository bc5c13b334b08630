package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Handle owns one spawned sidecar process. It carries no liveness guarantee
// beyond "we have not reaped it"; the supervisor is the only owner and
// serializes all access.
type Handle struct {
	mu        sync.Mutex
	spec      Spec
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	outCloser io.WriteCloser
	errCloser io.WriteCloser
	reaped    bool
}

// Spawn launches the sidecar described by spec. Standard input is detached
// (/dev/null); stdout/stderr are inherited from the parent for passthrough
// visibility unless output capture is configured, in which case they go to
// rotating log files.
func Spawn(spec Spec) (*Handle, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cmd := spec.buildCommand()

	h := &Handle{spec: spec}

	// cmd.Stdin left nil: os/exec connects the child to /dev/null.
	if spec.Log.Enabled() {
		if spec.Log.Dir != "" {
			_ = os.MkdirAll(spec.Log.Dir, 0o750)
		}
		outW, errW, _ := spec.Log.Writers(spec.displayName())
		if outW != nil {
			cmd.Stdout = outW
			h.outCloser = outW
		} else {
			cmd.Stdout = os.Stdout
		}
		if errW != nil {
			cmd.Stderr = errW
			h.errCloser = errW
		} else {
			cmd.Stderr = os.Stderr
		}
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		h.closeWriters()
		return nil, fmt.Errorf("spawn %s: %w", spec.displayName(), err)
	}
	h.cmd = cmd
	h.pid = cmd.Process.Pid
	h.startedAt = time.Now()
	return h, nil
}

// PID returns the OS process id recorded at spawn time.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid
}

// StartedAt returns the spawn timestamp.
func (h *Handle) StartedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startedAt
}

// Name returns the spec name used at spawn time.
func (h *Handle) Name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.spec.displayName()
}

// Terminate force-stops the process group and blocks until the exit status is
// reaped. Both steps are best-effort: termination runs during shutdown and
// restart paths where there is nobody left to act on a failure, so errors are
// swallowed. Terminate is idempotent.
func (h *Handle) Terminate() {
	h.mu.Lock()
	if h.reaped || h.cmd == nil {
		h.mu.Unlock()
		return
	}
	h.reaped = true
	cmd := h.cmd
	pid := h.pid
	h.mu.Unlock()

	killGroup(pid)
	_ = cmd.Wait()
	h.closeWriters()
}

func (h *Handle) closeWriters() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.outCloser != nil {
		_ = h.outCloser.Close()
		h.outCloser = nil
	}
	if h.errCloser != nil {
		_ = h.errCloser.Close()
		h.errCloser = nil
	}
}

//go:build windows

package process

import (
	"os"
	"os/exec"
)

// setSysProcAttr is a no-op on Windows; there are no process groups to join.
func setSysProcAttr(_ *exec.Cmd) {}

// killGroup kills the process itself; child helpers are not tracked on
// Windows. Best-effort.
func killGroup(pid int) {
	if pid <= 0 {
		return
	}
	if p, err := os.FindProcess(pid); err == nil {
		_ = p.Kill()
	}
}

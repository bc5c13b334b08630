//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr places the sidecar in its own process group so Terminate can
// take down any helpers it forks.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup sends SIGKILL to the whole process group. Best-effort.
func killGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

//go:build !windows

package process

import "syscall"

// findProcessAlive returns nil while pid still responds to signal 0.
// Terminate reaps synchronously, so a stopped child fails this immediately.
func findProcessAlive(pid int) error {
	return syscall.Kill(pid, 0)
}

package manager

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by supervisor lifecycle operations.
var (
	// ErrAlreadyRunning indicates Start was called while a sidecar handle exists.
	ErrAlreadyRunning = errors.New("sidecar already running")

	// ErrNotReady indicates the readiness budget was exhausted without a
	// successful health check.
	ErrNotReady = errors.New("sidecar failed to become ready")
)

// SpawnError wraps a failure to launch the sidecar executable.
type SpawnError struct {
	Err error
}

// Error returns a formatted error message.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn sidecar: %v", e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

package client

import "fmt"

// RequestError is a transport-level failure: connection refused, timeout,
// anything that prevented an HTTP exchange from completing.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// HealthError reports a health endpoint answering outside the success class.
type HealthError struct {
	Status int
}

func (e *HealthError) Error() string {
	return fmt.Sprintf("health check returned %d", e.Status)
}

// DecodeError reports a response body that could not be decoded into the
// expected shape. It is distinct from RequestError so callers can tell a
// broken sidecar from an unreachable one.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to parse response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

package ollama

import (
	"fmt"
	"time"
)

// BackendError reports a generate call that reached the backend but did not
// yield a usable response: a non-200 status, or a 200 whose body could not
// be decoded.
type BackendError struct {
	StatusCode int
	Reason     string
}

func (e *BackendError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Reason)
	}

	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// TimeoutError reports a generate call that exceeded the configured time
// budget. The call is not retried; the caller should retry with a shorter
// document if at all.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf(
		"inference request timed out after %s: retry with a shorter document",
		e.Timeout,
	)
}

// NetworkError reports any other transport-level fault during the generate
// call.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "communicate with backend: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Package clients provides the outbound HTTP client used by context sinks.
package clients

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen is returned without calling the collector while the
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once every
	// attempt has failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError reports a response status treated as a failure.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCode rejects a join attempt before any request is made.
	ErrEmptyCode = errors.New("session: empty meeting code")
	// ErrInvalidResponse marks a payload that could not be parsed into the
	// expected shape, or a backend that reported failure.
	ErrInvalidResponse = errors.New("session: invalid response")
)

// TransportError wraps a network-level failure on join/end/evidence calls.
// It is surfaced to the calling affordance; the operation is not retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("session: %s transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

package sink

import (
	"errors"
	"fmt"
)

// ErrIOFailure is matched by every WriteError.
var ErrIOFailure = errors.New("I/O failure")

// WriteError represents a failed write to a destination. Writes are never retried.
type WriteError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("write error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("write error for %s: %s", e.Path, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrIOFailure) hold for any WriteError.
func (e *WriteError) Is(target error) bool {
	return target == ErrIOFailure
}

// internal/optimizer/errors.go
package optimizer

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by operations that need an active model
// before Initialize or LoadModel has installed one.
var ErrNotInitialized = errors.New("optimizer is not initialized; call Initialize first")

// ErrInvalidInput is the class sentinel wrapped by every ValidationError, so
// callers can match the category with errors.Is and recover the detail with
// errors.As.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports a malformed or missing caller-supplied input. The
// message is the reason alone; Field carries which input failed for callers
// that route on it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalidInput(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

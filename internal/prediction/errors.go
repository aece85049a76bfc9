// internal/prediction/errors.go
package prediction

import (
	"errors"
	"fmt"
)

// ErrMissingPredict is returned when an explanation is requested for a value
// that does not expose predict capability.
var ErrMissingPredict = errors.New("missing predict capability")

var errNoModel = errors.New("no model loaded")

// InferenceError wraps a model failure during a prediction call, preserving
// the underlying message for callers that surface it verbatim.
type InferenceError struct {
	Stage string // "predict", "batch", or "confidence".
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("prediction %s failed: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// ExplanationError wraps a failure during occlusion analysis.
type ExplanationError struct {
	Err error
}

func (e *ExplanationError) Error() string {
	return fmt.Sprintf("explanation failed: %v", e.Err)
}

func (e *ExplanationError) Unwrap() error {
	return e.Err
}

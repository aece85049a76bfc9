// internal/model/errors.go
package model

import (
	"errors"
	"fmt"
)

// ErrDimension indicates an input or target slice whose length does not match
// the network topology.
var ErrDimension = errors.New("model: dimension mismatch")

// ErrIncompatibleSnapshot indicates a persisted model whose format or
// topology cannot be loaded by this build.
var ErrIncompatibleSnapshot = errors.New("model: incompatible snapshot")

// PersistenceError wraps a failure while saving or loading a model snapshot,
// keeping the operation and file path for the caller's logs.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("model %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

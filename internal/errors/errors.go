// Package errors provides structured error types for foreman.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core failure taxonomy.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrCorruptState      = errors.New("corrupt state")
)

// NotFound wraps ErrNotFound with the kind and id of the missing entity.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// InvalidTransition wraps ErrInvalidTransition with the attempted move.
func InvalidTransition(kind, id, from, to string) error {
	return fmt.Errorf("%s %s: %s -> %s: %w", kind, id, from, to, ErrInvalidTransition)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidTransition reports whether err is (or wraps) ErrInvalidTransition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsCorruptState reports whether err is (or wraps) ErrCorruptState.
func IsCorruptState(err error) bool {
	return errors.Is(err, ErrCorruptState)
}

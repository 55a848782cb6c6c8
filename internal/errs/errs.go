// Package errs defines the error taxonomy shared by the core, the services and
// the adapters. Callers test for a category with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means an action, change or schedule entry id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInvalidField means the field is outside the closed set of change fields.
	ErrInvalidField = errors.New("invalid field")

	// ErrImmutableField means the field cannot be mutated this way by this caller.
	ErrImmutableField = errors.New("immutable field")

	// ErrUnauthorised means the caller's role does not permit the operation.
	ErrUnauthorised = errors.New("unauthorised")

	// ErrNotPending means the change has already been resolved.
	ErrNotPending = errors.New("not pending")

	// ErrValidationFailed means the request was rejected before anything was written.
	ErrValidationFailed = errors.New("validation failed")
)

// NotFound returns an ErrNotFound wrapped with a description of the missing entity.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// InvalidField returns an ErrInvalidField with detail.
func InvalidField(format string, args ...any) error {
	return wrap(ErrInvalidField, format, args...)
}

// ImmutableField returns an ErrImmutableField with detail.
func ImmutableField(format string, args ...any) error {
	return wrap(ErrImmutableField, format, args...)
}

// Unauthorised returns an ErrUnauthorised with detail.
func Unauthorised(format string, args ...any) error {
	return wrap(ErrUnauthorised, format, args...)
}

// NotPending returns an ErrNotPending with detail.
func NotPending(format string, args ...any) error {
	return wrap(ErrNotPending, format, args...)
}

// Validation returns an ErrValidationFailed with detail.
func Validation(format string, args ...any) error {
	return wrap(ErrValidationFailed, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// Kind returns the taxonomy sentinel err belongs to, or nil if it belongs to none.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalidField, ErrImmutableField, ErrUnauthorised, ErrNotPending, ErrValidationFailed} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

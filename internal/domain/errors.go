package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrCoordination = errors.New("not allowed")
)

// ValidationError is returned for malformed input, before anything is written.
type ValidationError struct {
	Msg string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// CoordinationError is returned when the acting user is not allowed to do
// what they asked in the current match or queue situation.
type CoordinationError struct {
	Msg string
}

func NewCoordinationError(format string, args ...any) *CoordinationError {
	return &CoordinationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *CoordinationError) Error() string { return e.Msg }

func (e *CoordinationError) Unwrap() error { return ErrCoordination }

// Package apperr defines the domain error kinds shared by the store,
// service and handler layers.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

// Error carries a user-facing message and unwraps to its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing league, prediction, race weekend or user.
func NotFound(format string, args ...any) error { return newf(ErrNotFound, format, args...) }

// Conflict reports a uniqueness or state violation.
func Conflict(format string, args ...any) error { return newf(ErrConflict, format, args...) }

// Forbidden reports an actor lacking rights for the action.
func Forbidden(format string, args ...any) error { return newf(ErrForbidden, format, args...) }

// Validation reports a malformed payload.
func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }

// Message returns the user-facing message of a domain error, or "" when
// err is not one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

package common

import (
	"errors"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level error kinds. The REST layer maps each kind to a status.
	ErrorValidation    = errors.New("validation error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorForbidden     = errors.New("forbidden")
	ErrorConfiguration = errors.New("configuration error")
	ErrorInternal      = errors.New("internal error")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error is a classified failure. Message is safe to show to callers,
// Err holds the underlying cause and is only meant for logs and
// development-mode responses.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Validation(msg string) error   { return newError(ErrorValidation, msg, nil) }
func Unauthorized(msg string) error { return newError(ErrorUnauthorized, msg, nil) }
func Forbidden(msg string) error    { return newError(ErrorForbidden, msg, nil) }
func NotFound(msg string) error     { return newError(ErrorNotFound, msg, nil) }
func Conflict(msg string) error     { return newError(ErrorAlreadyExists, msg, nil) }

// Configuration reports a missing or broken server setting.
func Configuration(msg string, cause error) error {
	return newError(ErrorConfiguration, msg, cause)
}

// Internal wraps an unexpected store, hashing or token failure.
func Internal(msg string, cause error) error {
	return newError(ErrorInternal, msg, cause)
}

// KindOf returns the error kind of err, or ErrorInternal when err was not
// classified.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []error{
		ErrorValidation, ErrorUnauthorized, ErrorForbidden, ErrorNotFound,
		ErrorAlreadyExists, ErrVersionConflict, ErrorConfiguration,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrorInternal
}

// MessageOf returns the caller-facing message of err. Unclassified errors
// never leak their text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

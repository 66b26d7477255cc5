package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error so the RPC layer can translate it for the caller.
type Code string

const (
	InvalidArgument    Code = "invalid-argument"
	Unauthenticated    Code = "unauthenticated"
	PermissionDenied   Code = "permission-denied"
	NotFound           Code = "not-found"
	FailedPrecondition Code = "failed-precondition"
	AlreadyExists      Code = "already-exists"
	Internal           Code = "internal"
)

// Error is a business error carrying a Code and a caller-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func Invalid(format string, args ...any) *Error {
	return New(InvalidArgument, format, args...)
}

func Denied(format string, args ...any) *Error {
	return New(PermissionDenied, format, args...)
}

func Missing(format string, args ...any) *Error {
	return New(NotFound, format, args...)
}

func Precondition(format string, args ...any) *Error {
	return New(FailedPrecondition, format, args...)
}

// CodeOf returns the code of the first *Error in err's chain, or Internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal
}

// MessageOf returns the caller-facing message for err. Internal errors are
// not exposed.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps a code to the status used by the RPC surface.
func HTTPStatus(code Code) int {
	switch code {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case FailedPrecondition:
		return http.StatusPreconditionFailed
	case AlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package phonebook

import (
	"errors"
	"fmt"
)

// ErrorCode classifies provider failures crossing the transport boundary.
type ErrorCode string

const (
	// ErrorCodeNotFound indicates an unknown folder or object name.
	ErrorCodeNotFound ErrorCode = "not_found"
	// ErrorCodeInvalidRequest indicates bad navigation flags or parameters.
	ErrorCodeInvalidRequest ErrorCode = "invalid_request"
	// ErrorCodeTransport indicates the backend query could not be dispatched.
	ErrorCodeTransport ErrorCode = "transport"
	// ErrorCodeBackend indicates the backend query completed with an error.
	ErrorCodeBackend ErrorCode = "backend"
	// ErrorCodeContract indicates a row did not match its query descriptor.
	ErrorCodeContract ErrorCode = "contract"
	// ErrorCodeCanceled indicates the request was finalized before completion.
	ErrorCodeCanceled ErrorCode = "canceled"
)

// Error is a typed provider error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e == nil {
		return "phonebook: <nil>"
	}
	msg := fmt.Sprintf("phonebook: %s", e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors carrying the same code, so errors.Is(err, ErrNotFound)
// holds for any not-found Error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound       = &Error{Code: ErrorCodeNotFound}
	ErrInvalidRequest = &Error{Code: ErrorCodeInvalidRequest}
	ErrTransport      = &Error{Code: ErrorCodeTransport}
	ErrBackend        = &Error{Code: ErrorCodeBackend}
	ErrContract       = &Error{Code: ErrorCodeContract}
	ErrCanceled       = &Error{Code: ErrorCodeCanceled}
)

// CodeOf returns the ErrorCode carried by err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, err error, format string, args ...any) *Error {
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return e
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

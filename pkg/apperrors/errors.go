// Package apperrors provides structured errors with machine-readable codes
// and HTTP status mapping for the API layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	CodeValidation        Code = "VALIDATION_FAILED"
	CodeInvalidSession    Code = "INVALID_SESSION"
	CodeInvalidCredential Code = "INVALID_CREDENTIALS"
	CodeUserExists        Code = "USER_EXISTS"
	CodeNoIngredients     Code = "NO_INGREDIENTS"
	CodeUpstreamFailure   Code = "UPSTREAM_FAILURE"
	CodeUpstreamTimeout   Code = "UPSTREAM_TIMEOUT"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error is an application error carrying a code, a user-facing message and
// an optional wrapped cause. The cause is for logs only and never reaches
// the response body.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode maps the error code to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Code {
	case CodeValidation, CodeInvalidSession, CodeNoIngredients, CodeUserExists:
		return http.StatusBadRequest
	case CodeInvalidCredential:
		return http.StatusUnauthorized
	case CodeUpstreamFailure, CodeUpstreamTimeout, CodeMalformedResponse, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that wraps a cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// From extracts an *Error from err, or wraps it as CodeInternal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeInternal, "An unexpected error occurred", err)
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// Package domainerrors defines code-carrying errors for the consent-admin
// domain. Services and handlers match on codes rather than error strings so
// transport mapping stays in one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and tests.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal"

	// CodeMissingIdentifier signals that the configured user-identifying
	// attribute was absent or empty. Fatal for the whole request.
	CodeMissingIdentifier Code = "missing_identifier"

	// CodePipelineFailure signals that the attribute release pipeline failed
	// for a relying party. The reconciliation pass must abort rather than
	// report an unknown release state.
	CodePipelineFailure Code = "pipeline_failure"

	// CodeStorageInconsistency signals that a revoke removed zero records
	// when one was expected.
	CodeStorageInconsistency Code = "storage_inconsistency"

	// CodeInvalidAction signals an action value outside grant/revoke.
	CodeInvalidAction Code = "invalid_action"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that preserves the underlying cause for
// errors.Is/As chains.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool { return HasCode(err, code) }

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidAction:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeStorageInconsistency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

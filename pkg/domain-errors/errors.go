// Package dErrors provides coded domain errors so services can classify
// failures without handlers inspecting message text.
package dErrors

import (
	"errors"
	"net/http"
)

// Code identifies the class of a domain error.
type Code string

const (
	// CodeBadRequest marks caller-supplied data that fails structural
	// validation (nil record, empty name).
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks lookups for identifiers that do not exist.
	CodeNotFound Code = "not_found"

	// CodeRetrieval marks unexpected store failures during reads.
	CodeRetrieval Code = "retrieval_failed"

	// CodePersistence marks unexpected store failures during writes.
	CodePersistence Code = "persistence_failed"

	// CodeInternal is the fallback for everything else.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. The wrapped cause stays available for logs
// via Unwrap but never crosses the transport boundary.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a domain error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a domain error preserving the underlying cause.
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

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code onto its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRetrieval, CodePersistence, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Package apierror defines the error taxonomy returned by services and
// rendered by the HTTP layer into the failure envelope.
package apierror

import (
	"fmt"
	"net/http"
)

// Kind classifies an Error independently of the HTTP status it maps to.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

// Error is an application error carrying the status code and message shown to clients.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Errors     []string // optional per-field details
	Err        error    // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind and status.
func New(kind Kind, statusCode int, message string) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Message: message}
}

func Validation(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, http.StatusConflict, message)
}

// Auth creates an authentication error; the status differs per call site (400, 401).
func Auth(statusCode int, message string) *Error {
	return New(KindAuth, statusCode, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, http.StatusNotFound, message)
}

// Internal wraps err as a 500 with a generic message.
func Internal(message string, err error) *Error {
	e := New(KindInternal, http.StatusInternalServerError, message)
	e.Err = err
	return e
}

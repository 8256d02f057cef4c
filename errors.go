package rincon

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode classifies errors returned by the Rincon client.
type ErrorCode int

const (
	// ErrCodeConnection indicates a connection failure or request timeout.
	ErrCodeConnection ErrorCode = iota
	// ErrCodeAuth indicates an authentication failure (401).
	ErrCodeAuth
	// ErrCodeValidation indicates the server rejected the request body (400).
	ErrCodeValidation
	// ErrCodeNotFound indicates the requested resource does not exist (404).
	ErrCodeNotFound
	// ErrCodeConflict indicates a route registration conflict. The Rincon
	// server reports conflicts as HTTP 500; the mapping is kept as-is for
	// compatibility.
	ErrCodeConflict
	// ErrCodeSession indicates a session precondition failure with no
	// network call involved (e.g. deregistering with nothing registered).
	ErrCodeSession
	// ErrCodeGeneric covers any other non-200 status.
	ErrCodeGeneric
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeConflict:
		return "conflict"
	case ErrCodeSession:
		return "session"
	case ErrCodeGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Error is a structured Rincon client error.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// StatusCode is the originating HTTP status (0 for connection and
	// session errors).
	StatusCode int
	// Message describes the error. For protocol errors this is the
	// server-supplied message when one was parseable.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("rincon: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("rincon: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a connection-level error.
func NewConnectionError(msg string, err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: msg, Err: err}
}

// NewAuthError creates an authentication error (401).
func NewAuthError(msg string) *Error {
	if msg == "" {
		msg = "Authentication failed"
	}
	return &Error{Code: ErrCodeAuth, StatusCode: 401, Message: msg}
}

// NewValidationError creates a validation error (400).
func NewValidationError(msg string) *Error {
	if msg == "" {
		msg = "Validation error"
	}
	return &Error{Code: ErrCodeValidation, StatusCode: 400, Message: msg}
}

// NewNotFoundError creates a not-found error (404).
func NewNotFoundError(msg string) *Error {
	if msg == "" {
		msg = "Resource not found"
	}
	return &Error{Code: ErrCodeNotFound, StatusCode: 404, Message: msg}
}

// NewConflictError creates a route conflict error (500).
func NewConflictError(msg string) *Error {
	if msg == "" {
		msg = "Route conflict"
	}
	return &Error{Code: ErrCodeConflict, StatusCode: 500, Message: msg}
}

// NewSessionError creates a session precondition error.
func NewSessionError(msg string) *Error {
	return &Error{Code: ErrCodeSession, Message: msg}
}

// NewGenericError creates an error for an unmapped non-200 status.
func NewGenericError(statusCode int, msg string) *Error {
	return &Error{Code: ErrCodeGeneric, StatusCode: statusCode, Message: msg}
}

// classify converts a non-200 response into a typed error. The message is
// taken from the server's {"message": ...} envelope, falling back to the raw
// response text when the body is not parseable JSON.
func classify(statusCode int, body []byte) *Error {
	msg := extractMessage(body)
	switch statusCode {
	case 401:
		return NewAuthError(msg)
	case 400:
		return NewValidationError(msg)
	case 404:
		return NewNotFoundError(msg)
	case 500:
		return NewConflictError(msg)
	default:
		return NewGenericError(statusCode, msg)
	}
}

// extractMessage pulls the message field out of an error response body.
func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return string(body)
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAuth
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeValidation
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsConflict checks if an error is a route conflict error.
func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConflict
}

// IsSession checks if an error is a session precondition error.
func IsSession(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeSession
}

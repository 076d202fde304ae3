// Package apperror provides the categorical errors returned by the HTTP
// layer. Each error carries a kind that maps to a status code and a message
// safe to show to the client.
//
// Never return raw database or infrastructure errors to the client. Wrap
// them with NewInternal so the cause is only logged.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the client.
type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	InvalidInput
	NotFound
	Conflict
	Unavailable
	TooManyRequests
)

// Status returns the HTTP status code the kind is reported with. A conflict
// is reported as a bad request, matching what clients of the article API
// expect for duplicate slugs.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case InvalidInput, Conflict:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unavailable:
		return http.StatusServiceUnavailable
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Name returns the error name written in the response envelope.
func (k Kind) Name() string {
	switch k {
	case Unauthenticated:
		return "UnauthorizedError"
	case Forbidden:
		return "ForbiddenError"
	case InvalidInput:
		return "ValidationError"
	case NotFound:
		return "NotFoundError"
	case Conflict:
		return "ApplicationError"
	case Unavailable:
		return "ServiceUnavailableError"
	case TooManyRequests:
		return "RateLimitError"
	default:
		return "InternalServerError"
	}
}

// Error is a categorised, client-safe error.
type Error struct {
	Kind    Kind
	Message string

	// Details is extra structured data for the client, such as the list of
	// violated validation rules.
	Details map[string]any

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind.Name(), e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Name(), e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Internal
}

// Status returns the HTTP status code for the error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// NewUnauthenticated creates a 401 error.
func NewUnauthenticated(message string) *Error {
	return &Error{Kind: Unauthenticated, Message: message}
}

// NewForbidden creates a 403 error.
func NewForbidden(message string) *Error {
	return &Error{Kind: Forbidden, Message: message}
}

// NewInvalidInput creates a 400 error.
func NewInvalidInput(message string) *Error {
	return &Error{Kind: InvalidInput, Message: message}
}

// NewValidation creates a 400 error listing every violated rule, in order.
func NewValidation(rules []string) *Error {
	return &Error{
		Kind:    InvalidInput,
		Message: "Validation failed",
		Details: map[string]any{"errors": rules},
	}
}

// NewNotFound creates a 404 error.
func NewNotFound(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

// NewConflict creates an error for a uniqueness violation.
func NewConflict(message string) *Error {
	return &Error{Kind: Conflict, Message: message}
}

// NewUnavailable creates a 503 error for a dependency that is not configured.
func NewUnavailable(message string) *Error {
	return &Error{Kind: Unavailable, Message: message}
}

// NewTooManyRequests creates a 429 error.
func NewTooManyRequests() *Error {
	return &Error{Kind: TooManyRequests, Message: "Too many requests, please try again later."}
}

// NewInternal creates a 500 error. The real error is stored in Internal for
// logging but the client only sees a generic message.
func NewInternal(err error) *Error {
	return &Error{
		Kind:     Internal,
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// From converts any error into an *Error. Errors that are not already
// categorised become internal errors.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}

// SafeMessage returns the client-safe message for err.
func SafeMessage(err error) string {
	return From(err).Message
}

// SafeStatus returns the HTTP status code for err, or 500 for any error
// that is not categorised.
func SafeStatus(err error) int {
	return From(err).Status()
}

// Package apperr defines the closed set of failures surfaced by the vault core.
// Remote adapters classify raw driver and transport errors into this set once,
// at the boundary; everything above compares with errors.Is.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthentication  = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("not signed in")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrSessionConflict = errors.New("a session is already active")
	ErrAccessDenied    = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUpload          = errors.New("upload failed")
	ErrNetwork         = errors.New("network error")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type classified struct {
	kind error
	op   string
	err  error
}

func (c *classified) Error() string {
	return fmt.Sprintf("%s: %v: %v", c.op, c.kind, c.err)
}

func (c *classified) Unwrap() []error {
	return []error{c.kind, c.err}
}

// Network wraps a transport failure for op. Context cancellation is kept as-is
// so callers can still match context.Canceled and context.DeadlineExceeded.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &classified{kind: ErrNetwork, op: op, err: err}
}

// Upload wraps an attachment transfer failure for op.
func Upload(op string, err error) error {
	if err == nil {
		return nil
	}
	return &classified{kind: ErrUpload, op: op, err: err}
}

// HTTPStatus maps a failure to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpload), errors.Is(err, ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable error code paired with HTTPStatus.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrAuthentication):
		return "AUTHENTICATION_ERROR"
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrAccessDenied):
		return "ACCESS_DENIED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrSessionConflict):
		return "SESSION_CONFLICT"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrUpload):
		return "UPLOAD_ERROR"
	case errors.Is(err, ErrNetwork):
		return "NETWORK_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

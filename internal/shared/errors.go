package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrAuthExpired      = fmt.Errorf("session expired")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrStaleResponse    = fmt.Errorf("session changed while request was in flight")

	// API and service errors
	ErrValidation         = fmt.Errorf("request rejected")
	ErrNotFound           = fmt.Errorf("not found")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrReconcile          = fmt.Errorf("failed to refresh local state")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// APIError is a failed backend call. Kind is one of [ErrAuthExpired], [ErrValidation], [ErrNotFound] or
// [ErrServiceUnavailable] and is what [errors.Is] matches against.
type APIError struct {
	Status  int    // HTTP status, 0 for transport failures
	Message string // user-displayable message
	Kind    error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Kind }

// NewAPIError classifies an HTTP status into the error taxonomy.
//
// An empty message is replaced with fallback.
func NewAPIError(status int, message, fallback string) *APIError {
	if message == "" {
		message = fallback
	}

	var kind error
	switch {
	case status == http.StatusUnauthorized:
		kind = ErrAuthExpired
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status >= 400 && status < 500:
		kind = ErrValidation
	default:
		kind = ErrServiceUnavailable
	}
	return &APIError{Status: status, Message: message, Kind: kind}
}

// UserMessage returns the message to show a user for err.
//
// Server-provided messages win; otherwise the taxonomy kind is used.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	switch {
	case errors.Is(err, ErrAuthExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrServiceUnavailable):
		return "The service is unavailable. Please try again later."
	case errors.Is(err, ErrNotFound):
		return "The requested item was not found."
	}
	return err.Error()
}

package openrouter

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrNetwork        = errors.New("network error occurred")
	ErrServer         = errors.New("server error occurred")
	ErrResponseFormat = errors.New("invalid response format")
	ErrInvalidRequest = errors.New("invalid request")
)

// APIError is returned when the completion endpoint answers with a non-2xx status.
// It unwraps to one of the sentinel errors above.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter: %v (status %d): %s", e.Err, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(status int, body string) *APIError {
	return &APIError{
		StatusCode: status,
		Body:       body,
		Err:        classifyStatus(status),
	}
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuthentication
	case status == http.StatusTooManyRequests:
		return ErrRateLimit
	case status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrInvalidRequest
	}
}

// IsRetryable reports whether err is a transient failure worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}

func formatError(msg string) error {
	return fmt.Errorf("openrouter: %w: %s", ErrResponseFormat, msg)
}

package menuapi

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when a successful response carries no body.
	ErrEmptyResponse = errors.New("empty response from server")
	// ErrInvalidResponse is returned when the response body is not valid JSON.
	ErrInvalidResponse = errors.New("invalid server response")
	// ErrNetwork wraps transport failures (connection refused, DNS, reset).
	ErrNetwork = errors.New("network error")
)

// APIError is a non-2xx response from the backend. Message holds the
// backend's "error" or "message" field, or a generic status message.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func statusMessage(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

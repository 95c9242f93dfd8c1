package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNetwork         = errors.New("network error")
	ErrNotFound        = errors.New("channel not found")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrNotConfigured   = errors.New("no endpoint configured")
)

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

// Unwrap maps 404 to ErrNotFound and everything else to ErrNetwork
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrNetwork
}

package opencitations

import (
	"errors"
	"fmt"
)

// Common errors returned by the OpenCitations client.
var (
	// ErrNotFound indicates the identifier has no entry in OpenCitations.
	ErrNotFound = errors.New("not found in OpenCitations")

	// ErrRateLimited indicates the endpoint rejected the request for throttling.
	ErrRateLimited = errors.New("OpenCitations rate limit exceeded")

	// ErrNetwork indicates a network connectivity issue or timeout.
	ErrNetwork = errors.New("network error communicating with OpenCitations")

	// ErrInvalidResponse indicates an unexpected payload from the endpoint.
	ErrInvalidResponse = errors.New("invalid response from OpenCitations")
)

// APIError represents a non-success HTTP response from an OpenCitations
// endpoint, with enough context to replay the failed item.
type APIError struct {
	StatusCode int
	Endpoint   string
	Identifier string
}

func (e *APIError) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("OpenCitations %s returned status %d (identifier: %s)", e.Endpoint, e.StatusCode, e.Identifier)
	}
	return fmt.Sprintf("OpenCitations %s returned status %d", e.Endpoint, e.StatusCode)
}

// IsNotFound returns true if the error indicates a missing identifier.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates throttling.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

package crossref

import (
	"errors"
	"fmt"
)

// Common errors returned by the Crossref client.
var (
	// ErrNotFound indicates the DOI has no Crossref work record.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrRateLimited indicates retries on HTTP 429 were exhausted.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrNetwork indicates a network connectivity issue or timeout.
	ErrNetwork = errors.New("network error communicating with Crossref")

	// ErrInvalidResponse indicates an unexpected payload.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// APIError represents a non-success HTTP response from the works API.
type APIError struct {
	StatusCode int
	DOI        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Crossref works API returned status %d (doi: %s)", e.StatusCode, e.DOI)
}

// IsNotFound returns true if the error indicates a missing work.
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

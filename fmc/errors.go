package fmc

import (
	"errors"
	"fmt"
)

// Common errors returned by the FMC client.
var (
	// ErrNotConnected indicates an operation was attempted before Connect.
	ErrNotConnected = errors.New("fmc client not connected: call Connect first")

	// ErrMissingTokens indicates the token endpoint answered 204 without
	// the expected auth headers.
	ErrMissingTokens = errors.New("fmc auth response missing token headers")
)

// AuthError represents a failed authentication attempt against FMC.
type AuthError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return fmt.Sprintf("fmc authentication failed: status %d: %s", e.StatusCode, e.Body)
}

// APIError represents a non-2xx response from the FMC API after any
// internal retries have been exhausted.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("fmc API error: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsForbidden checks if the error indicates insufficient privileges.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == 403
}

// IsNotFound checks if the error indicates a not found response.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

package domain

import (
	"errors"
	"fmt"
)

// ConfigError reports missing or invalid settings or credentials. The user has
// to act; retrying does not help.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Reason }

// AuthError reports a rejected or unusable credential. Revoked errors are
// terminal: stored credentials are cleared and the user must reconnect.
// Non-revoked auth errors are retried on the next cycle.
type AuthError struct {
	Revoked bool
	Reason  string
	Err     error
}

func (e *AuthError) Error() string {
	msg := "authentication failed"
	if e.Revoked {
		msg = "authentication revoked"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure. Transient.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error during %s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// ConflictError reports that the remote revision changed between read and write.
// Retried by re-reading and re-merging.
type ConflictError struct {
	Path    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict writing %s: %s", e.Path, e.Message)
}

// APIError is any other non-2xx answer from the remote API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error: %d: %s", e.Status, e.Message)
}

// IsRevoked reports whether err carries a terminal AuthError.
func IsRevoked(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Revoked
}

// IsAuth reports whether err carries any AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsConflict reports whether err carries a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsConfig reports whether err carries a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

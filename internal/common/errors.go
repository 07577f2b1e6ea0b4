// Package common defines sentinel errors and typed errors shared by the
// storage, queue, sync and transport layers of the UStory client. Callers
// should use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Input errors.
	ErrValidation = errors.New("validation error")

	// Local persistence errors (quota, corruption, closed database).
	ErrStorage = errors.New("storage error")

	// Remote errors.
	ErrNetwork      = errors.New("network error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")

	// ErrOffline is returned when a response was synthesized by the
	// request-cache layer instead of coming from the remote API.
	ErrOffline = errors.New("offline response")

	// Push errors. Never retried automatically.
	ErrPermission = errors.New("permission not granted")

	// Session errors.
	ErrNoToken = errors.New("no token")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HTTPError is a non-2xx answer from the remote API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// StorageFailure wraps err so that it matches ErrStorage while keeping the
// original cause reachable through errors.Unwrap.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// IsHTTPError reports whether err carries a remote non-2xx answer, as
// opposed to a transport failure.
func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

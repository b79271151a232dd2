package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when a valid request matches no record.
var ErrNotFound = errors.New("resource not found")

// APIError is a failed call to the upstream API. Status is 0 when no
// response was received (network failure).
type APIError struct {
	Status   int
	Endpoint string
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api %s: network error: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("api %s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return e.Err
}

// IsNetwork reports whether no HTTP response was received.
func (e *APIError) IsNetwork() bool {
	return e.Status == 0
}

// IsRetryable reports whether err is worth another attempt. Network errors,
// 5xx and 408 are transient; every other 4xx, 429 included, is final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch {
	case apiErr.Status == 0:
		return true
	case apiErr.Status == http.StatusRequestTimeout:
		return true
	case apiErr.Status >= 400 && apiErr.Status < 500:
		return false
	default:
		return apiErr.Status >= 500
	}
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

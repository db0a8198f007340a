package gateway

import "fmt"

// UnavailableError is a transport failure or provider 5xx: safe to retry
// with backoff.
type UnavailableError struct {
	Gateway string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Gateway, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError is a provider 4xx (bad amount, unsupported currency, ...):
// surfaced to the caller for correction, never retried as-is.
type RejectedError struct {
	Gateway    string
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected request (%d): %s", e.Gateway, e.StatusCode, e.Message)
}

// VerifyTimeoutError means the provider did not answer a verify call within
// the deadline. The attempt is not a failure; callers re-poll later.
type VerifyTimeoutError struct {
	Gateway   string
	Reference string
	Err       error
}

func (e *VerifyTimeoutError) Error() string {
	return fmt.Sprintf("%s verify timed out for %s: %v", e.Gateway, e.Reference, e.Err)
}

func (e *VerifyTimeoutError) Unwrap() error { return e.Err }

package shipstation

import (
	"errors"
	"fmt"
	"time"
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (other than 429).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is a non-2xx response from the ShipStation API.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Endpoint   string
	Message    string

	// Hint is the server-provided Retry-After duration on 429 responses,
	// zero when absent or unparseable.
	Hint time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("shipstation %s error (status %d) on %s: %s",
		e.Class, e.StatusCode, e.Endpoint, e.Message)
}

// RetryHint reports the server-provided wait hint, if any.
func (e *APIError) RetryHint() (time.Duration, bool) {
	if e.Hint > 0 {
		return e.Hint, true
	}
	return 0, false
}

// UpstreamError is a terminal fetch failure: the retry budget for one request
// was exhausted. It aborts the whole job, not just the page.
type UpstreamError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream fetch failed on %s: %v", e.Endpoint, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// retryable decides whether an error gets another attempt. Rate limits,
// server errors and network failures obviously qualify; non-429 4xx responses
// are retried too, up to the same bounded budget, matching the upstream
// consumer this replaces. The retries are bounded, so the extra attempts cost
// a few seconds at worst.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}
	// Anything else at this layer is a transport-level failure.
	return err != nil
}

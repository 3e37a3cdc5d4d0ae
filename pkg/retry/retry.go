// Package retry provides a shared retry policy with exponential backoff.
//
// Both the order fetcher and the delivery channel consume the same Policy
// type so the backoff loop exists (and is tested) exactly once. A policy is
// plain data: attempt budget, backoff shape, and a predicate deciding which
// errors are worth retrying.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Common errors returned by Do.
var (
	// ErrExhausted is returned when all retry attempts are exhausted.
	ErrExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during backoff.
	ErrContextCancelled = errors.New("context cancelled")
)

// Hinter is implemented by errors that carry a server-provided wait hint,
// such as a Retry-After header value. A positive hint overrides the computed
// backoff for the next attempt.
type Hinter interface {
	RetryHint() (time.Duration, bool)
}

// Policy holds the configuration for a retry loop.
type Policy struct {
	// MaxAttempts is the maximum number of attempts (including the initial one).
	MaxAttempts int

	// InitialBackoff is the backoff duration before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// Multiplier is the exponential backoff multiplier. A multiplier of 1
	// yields a fixed delay between attempts.
	Multiplier float64

	// Jitter is the relative jitter applied to each backoff (0.2 = ±20%).
	// Zero disables jitter, keeping the delay exact.
	Jitter float64

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    4,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.2,
	}
}

// Do executes fn with retries according to the policy. It respects context
// cancellation during backoff sleeps. On exhaustion the last error is wrapped
// in ErrExhausted.
func (p Policy) Do(ctx context.Context, logger zerolog.Logger, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	backoff := p.InitialBackoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		if attempt >= p.MaxAttempts {
			break
		}

		wait := backoff
		if p.Jitter > 0 {
			wait = time.Duration(float64(backoff) * (1 - p.Jitter + rand.Float64()*2*p.Jitter))
		}

		// A server-provided hint (e.g. Retry-After) wins over the computed backoff.
		var h Hinter
		if errors.As(err, &h) {
			if hint, ok := h.RetryHint(); ok {
				wait = hint
			}
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("retrying after backoff")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * p.Multiplier)
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	logger.Warn().
		Int("max_attempts", p.MaxAttempts).
		Msg("retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}

// hintError attaches a wait hint to an error.
type hintError struct {
	err  error
	hint time.Duration
}

func (e *hintError) Error() string { return e.err.Error() }

func (e *hintError) Unwrap() error { return e.err }

// RetryHint implements Hinter.
func (e *hintError) RetryHint() (time.Duration, bool) { return e.hint, true }

// WithHint wraps err with a server-provided wait hint.
func WithHint(err error, hint time.Duration) error {
	if err == nil {
		return nil
	}
	return &hintError{err: err, hint: hint}
}

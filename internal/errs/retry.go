package errs

import (
	"context"
	"time"
)

// RetryPolicy configures the central retry driver (spec.md §7: "retryable
// errors are retried by a central retry driver with exponential backoff").
type RetryPolicy struct {
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy matches the RPC-call defaults spec.md §5 names: a
// maximum of 3 attempts for retryable errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   200 * time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    5 * time.Second,
		MaxAttempts: 3,
	}
}

// Do runs fn, retrying with exponential backoff while the returned error
// is a taxonomy error flagged Retryable, up to MaxAttempts. A
// non-retryable error propagates immediately. The final attempt's error
// (retryable or not) is returned if every attempt is exhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := p.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) || attempt == p.MaxAttempts {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

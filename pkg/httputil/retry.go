// Package httputil provides the retry loop shared by reposgraph's fetchers.
//
// Only failures marked with [Retryable] are retried; everything else returns
// immediately. Fetchers mark network errors and 5xx responses as retryable
// and leave absence and malformed content alone:
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
package httputil

import (
	"context"
	"errors"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	Attempts int           // Total attempts, at least 1
	Delay    time.Duration // Wait before the second attempt; doubles after each failure
}

// DefaultPolicy makes 3 attempts starting with a 1 second delay.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// NoRetry makes a single attempt.
var NoRetry = Policy{Attempts: 1}

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err, or anything it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Retry executes fn until it succeeds, returns a non-retryable error, or the
// policy is exhausted. Returns the last error, or ctx.Err() if cancelled
// while waiting.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

package cache

import (
	"context"
	"errors"
	"time"
)

// retryAttempts is how many times a remote cache operation is tried.
const retryAttempts = 3

// ErrBackend marks a transient failure talking to a remote cache backend.
var ErrBackend = errors.New("cache backend unavailable")

// RetryableError marks an error worth another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an error that is not
// retryable, or has been tried retryAttempts times. The wait starts at
// base and doubles after every failure.
func RetryWithBackoff(ctx context.Context, base time.Duration, fn func() error) error {
	wait := base
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}

package source

import (
	"context"
	"errors"
	"time"
)

// Backoff controls [Retry]. The zero value makes a single attempt.
type Backoff struct {
	Attempts int           // total attempts, including the first
	Delay    time.Duration // wait before the second attempt
	MaxDelay time.Duration // cap for the doubling delay; zero means no cap
}

// DefaultBackoff is used by sources that reconnect to an external process.
var DefaultBackoff = Backoff{Attempts: 5, Delay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient so [Retry] tries again. Retryable(nil)
// is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with [Retryable].
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// Retry calls fn until it succeeds, returns an error not marked
// [Retryable], runs out of attempts, or ctx is done. The delay doubles
// after each failure. The last error is returned unwrapped.
func Retry(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return errors.Unwrap(err)
}

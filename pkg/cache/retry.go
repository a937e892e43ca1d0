package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a backend that could not be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// Retry policy for remote backends.
const (
	retryAttempts = 3
	retryBase     = 100 * time.Millisecond
)

// transientError is a failure that may succeed when repeated.
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// transient marks err as worth retrying. It returns nil for nil.
func transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: errors.Join(ErrUnavailable, err)}
}

// IsTransient reports whether err was marked as worth retrying.
func IsTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

// retry calls fn until it succeeds, fails permanently, or the attempts run
// out. The delay doubles after each transient failure.
func retry(ctx context.Context, fn func() error) error {
	delay := retryBase
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) || attempt == retryAttempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}

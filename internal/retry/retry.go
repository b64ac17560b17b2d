// Package retry wraps remote calls with bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"beneficiary-portal/internal/apierr"
)

const (
	DefaultMaxRetries = 3
	DefaultDelay      = 1000 * time.Millisecond
)

type Options struct {
	MaxRetries int
	Delay      time.Duration
	// RetryIf decides whether a failure is worth another attempt. Defaults to
	// apierr.Retryable, which never retries auth, validation or lockout errors.
	RetryIf func(error) bool
}

type Option func(*Options)

func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

func WithDelay(d time.Duration) Option {
	return func(o *Options) { o.Delay = d }
}

func WithRetryIf(fn func(error) bool) Option {
	return func(o *Options) { o.RetryIf = fn }
}

// Do invokes fn, retrying failures up to MaxRetries times with delays of
// Delay * 2^attempt. The last error propagates unchanged once the budget is
// exhausted or RetryIf rejects the error. Context cancellation aborts the wait.
func Do[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	options := Options{
		MaxRetries: DefaultMaxRetries,
		Delay:      DefaultDelay,
		RetryIf:    apierr.Retryable,
	}
	for _, opt := range opts {
		opt(&options)
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == options.MaxRetries || !options.RetryIf(err) {
			return zero, err
		}

		delay := options.Delay << uint(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// Exec is Do for calls that return no value
func Exec(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)
	return err
}

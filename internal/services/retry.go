package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy describes exponential backoff for transient storage errors.
type RetryPolicy struct {
	MaxRetries   int           // 0 = single attempt
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration // cap
	Multiplier   float64       // e.g. 2.0
	Jitter       bool          // randomize each delay by up to 20%
}

// DefaultRetryPolicy suits SQLite lock contention.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:   5,
	InitialDelay: 20 * time.Millisecond,
	MaxDelay:     500 * time.Millisecond,
	Multiplier:   2,
	Jitter:       true,
}

// backOff returns a fresh exponential schedule for p.
func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	b.RandomizationFactor = 0
	if p.Jitter {
		b.RandomizationFactor = 0.2
	}
	return b
}

// retry runs fn until it succeeds, returns an error retryable rejects, or
// the policy is exhausted.
func retry[T any](ctx context.Context, p RetryPolicy, retryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	tries := p.MaxRetries + 1
	if tries < 1 {
		tries = 1
	}
	out, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		var zero T
		return zero, err
	}
	return out, nil
}

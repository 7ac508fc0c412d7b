// Package retry runs an operation a bounded number of times with capped
// exponential backoff between attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sweetpotato0/agri-advisor/errors"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts uint
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	// Jitter is the randomization factor in [0,1); zero gives deterministic delays.
	Jitter float64
}

// DefaultPolicy is three attempts, 200ms doubling, capped at 2s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Initial: 200 * time.Millisecond, Max: 2 * time.Second, Multiplier: 2, Jitter: 0.2}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts == 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Initial <= 0 {
		p.Initial = def.Initial
	}
	if p.Max <= 0 {
		p.Max = def.Max
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = 0
	}
	return p
}

// Notify is called after each failed attempt that will be retried.
type Notify func(attempt int, err error, wait time.Duration)

// Do runs op until it succeeds, returns a non-retryable error (see
// errors.IsRetryable), the attempts run out, or ctx is done.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), notify Notify) (T, error) {
	p = p.normalized()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter

	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && !errors.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.MaxAttempts),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			notify(attempt, err, wait)
		}))
	}
	return backoff.Retry(ctx, operation, opts...)
}

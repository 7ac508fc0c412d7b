package limiter

import (
	"github.com/sweetpotato0/agri-advisor/middleware"
	"golang.org/x/time/rate"
)

// ErrRateLimitExceeded indicates rate limit has been exceeded
var ErrRateLimitExceeded = middleware.ErrRateLimitExceeded

// RateLimiter is a token-bucket limiter shared by all requests through the
// chain. It is safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
	wait    bool
}

// Option configures the limiter.
type Option func(*RateLimiter)

// WithWait makes the limiter block until a token is available (or the
// request context ends) instead of rejecting.
func WithWait() Option {
	return func(m *RateLimiter) { m.wait = true }
}

// NewRateLimiter allows perSecond requests with bursts of burst. A
// non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int, opts ...Option) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	m := &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "rate_limit"
}

// Execute checks rate limit
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.wait {
		if err := m.limiter.Wait(ctx.Context()); err != nil {
			return ErrRateLimitExceeded
		}
		return next(ctx)
	}
	if !m.limiter.Allow() {
		return ErrRateLimitExceeded
	}
	return next(ctx)
}

// Tokens reports the tokens currently available.
func (m *RateLimiter) Tokens() float64 {
	return m.limiter.Tokens()
}

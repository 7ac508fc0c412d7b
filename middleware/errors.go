package middleware

import "github.com/sweetpotato0/agri-advisor/errors"

var (
	// ErrRateLimitExceeded indicates rate limit has been exceeded
	ErrRateLimitExceeded = errors.ErrRateLimited

	// ErrInvalidInput indicates the query failed validation
	ErrInvalidInput = errors.ErrInvalidQuery
)

package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an unexpected fault inside the pipeline
	ErrInternal = errors.New("internal error")
)

// Advisory pipeline failure classes. Every boundary converts these into a
// degraded response; none of them reach the caller of Advise.
var (
	// ErrTransientSource indicates a data source fetch failed in a way that may succeed on retry
	ErrTransientSource = errors.New("transient data source failure")

	// ErrNoDataAvailable indicates a source answered but holds nothing for the request
	ErrNoDataAvailable = errors.New("no data available")

	// ErrValidationUnavailable indicates the remote generation/validation service could not be used
	ErrValidationUnavailable = errors.New("validation service unavailable")

	// ErrOffline indicates there is no network connectivity
	ErrOffline = errors.New("offline")

	// ErrInvalidQuery indicates the query is empty or too short to act on
	ErrInvalidQuery = errors.New("invalid query")

	// ErrRateLimited indicates the caller exceeded the configured request rate
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsRetryable reports whether a failed fetch is worth another attempt.
// Missing data and invalid input are final answers, everything else is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNoDataAvailable),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidQuery),
		errors.Is(err, ErrNotFound):
		return false
	}
	return true
}

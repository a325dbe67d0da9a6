package whoop

import "errors"

// Sentinel errors for provider API failures. Callers classify with errors.Is
// and translate to user-facing messages at the tool layer.
var (
	// ErrUnauthorized means the access token was rejected even after a
	// forced refresh.
	ErrUnauthorized = errors.New("whoop: access token rejected")

	// ErrForbidden means the token is valid but lacks a required scope.
	ErrForbidden = errors.New("whoop: insufficient scope")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("whoop: resource not found")

	// ErrRateLimited means the provider returned 429.
	ErrRateLimited = errors.New("whoop: rate limit exceeded")

	// ErrUnavailable covers provider 5xx responses.
	ErrUnavailable = errors.New("whoop: service unavailable")
)

package auth

import "errors"

// Sentinel errors used across the auth flow. Tool handlers map these to
// user-actionable messages.
var (
	// ErrAuthenticationRequired means no token has ever been stored.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrReauthenticationRequired means the refresh token was rejected and the
	// stored token has been discarded. Only a new authorization flow recovers.
	ErrReauthenticationRequired = errors.New("reauthentication required")

	// ErrAuthorizationTimeout means the callback listener gave up waiting for
	// the provider redirect.
	ErrAuthorizationTimeout = errors.New("authorization timed out")

	// ErrAuthorizationNotStarted means CompleteAuthorization was called with
	// no BeginAuthorization pending.
	ErrAuthorizationNotStarted = errors.New("authorization flow not started")

	// ErrStateMismatch means the redirect carried an unexpected state value.
	ErrStateMismatch = errors.New("oauth state mismatch")
)

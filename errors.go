package goGate

import "errors"

var (
	// ErrUnauthenticated is returned when the request carries no usable access
	// credential and no reissue was attempted.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAccessExpired is returned by [Engine.Authenticate] for a correctly
	// signed access credential whose expiry has passed. It is the only
	// failure that makes the gate attempt a reissue.
	ErrAccessExpired = errors.New("access credential expired")
	// ErrMissingRefreshCredential is returned when the refresh cookie is absent or empty.
	ErrMissingRefreshCredential = errors.New("refresh credential missing")
	// ErrInvalidRefreshCredential is returned when the refresh credential does not validate.
	ErrInvalidRefreshCredential = errors.New("invalid refresh credential")
	// ErrWrongCredentialCategory is returned when an access credential is presented for reissue.
	ErrWrongCredentialCategory = errors.New("not a refresh credential")
	// ErrSessionNotFound is returned when no session record exists for the (user, device) pair.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionTokenMismatch is returned when the presented refresh credential is
	// not the one currently recorded, typically because it was already rotated.
	ErrSessionTokenMismatch = errors.New("session credential mismatch")
	// ErrStoreUnavailable is returned when the session store cannot be reached.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrUserNotFound is returned by [UserDirectory] implementations for unknown handles.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidIdentity is returned by [Engine.CompleteLogin] for an identity without a provider id.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrDirectoryUnavailable wraps user directory failures other than [ErrUserNotFound].
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrCredentialIssue wraps credential signing failures.
	ErrCredentialIssue = errors.New("credential issue failed")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

package session

import "errors"

var (
	// ErrUnauthenticated is returned when the request carries no session cookie,
	// a malformed id, or an id with no stored record.
	ErrUnauthenticated = errors.New("session: unauthenticated")
	// ErrSessionExpired is returned when the absolute lifetime has elapsed.
	// The record is deleted; later lookups report ErrUnauthenticated.
	ErrSessionExpired = errors.New("session: expired")
	// ErrSessionIdleTimeout is returned when the session was unused for longer than the idle timeout.
	ErrSessionIdleTimeout = errors.New("session: idle timeout")
	// ErrBindingMismatch is returned when the client fingerprint differs from the one recorded at issuance.
	ErrBindingMismatch = errors.New("session: client binding mismatch")
	// ErrCSRFInvalid is returned when a state-changing request lacks a matching CSRF token.
	ErrCSRFInvalid = errors.New("session: invalid csrf token")
	// ErrStorage wraps persistence failures.
	ErrStorage = errors.New("session: storage failure")
	// ErrTokenGeneration is returned when the random source fails.
	ErrTokenGeneration = errors.New("session: failed to generate token")
	// ErrInvalidTransition is returned when a lifecycle trigger is not permitted from the current state.
	ErrInvalidTransition = errors.New("session: invalid state transition")
	// ErrInvalidConfig is returned by NewManager for an unusable policy.
	ErrInvalidConfig = errors.New("session: invalid config")
)

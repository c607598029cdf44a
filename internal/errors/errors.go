package errors

import "errors"

// Common error types for the session client
var (
	// Authentication errors
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUserExists           = errors.New("user already exists")
	ErrUnauthorized         = errors.New("unauthorized")

	// Token errors
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotFound = errors.New("token not found")

	// ErrValidationUnavailable means a token could not be checked, not that it is bad
	ErrValidationUnavailable = errors.New("token validation unavailable")

	// Coordinator errors
	ErrCoordinatorStopped = errors.New("session coordinator stopped")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

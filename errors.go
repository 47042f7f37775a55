package backoffice

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid session token")
	ErrTokenExpired       = errors.New("session token expired")

	// ErrSecretRequired is returned at startup when running in production
	// without an explicit SESSION_SECRET.
	ErrSecretRequired = errors.New("session secret is required in production")
)

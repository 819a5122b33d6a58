package identity

import "errors"

var (
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
	// The single message keeps account existence unguessable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for malformed, expired or revoked tokens
	ErrInvalidToken = errors.New("invalid or expired session token")

	// ErrIdentityExists is returned when credentials already exist for an email
	ErrIdentityExists = errors.New("an account with this email already exists")

	// ErrWeakPassword is returned when the password fails the minimum policy
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

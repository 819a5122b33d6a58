package directory

import "errors"

var (
	// ErrUserNotFound is returned when no directory entry matches
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingCredentials is returned when email or password is blank
	ErrMissingCredentials = errors.New("email and password are required")

	// ErrInvalidRole is returned for a role outside the staff role set
	ErrInvalidRole = errors.New("unknown role")

	// ErrRoleTaken is returned when a non-admin role already has a holder.
	// One account per staff function keeps the workflow screens owned.
	ErrRoleTaken = errors.New("this role is already assigned to another account")

	// ErrEmailTaken is returned when the email already has a directory entry
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrNoWorkspace is returned at login when the account has no role that
	// maps to a workspace screen
	ErrNoWorkspace = errors.New("account has no assigned workspace")
)

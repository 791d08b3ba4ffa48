package login

import "errors"

var (
	// ErrUserNotFound means no account exists for the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredential means the password did not match.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrAccountLocked means too many failed attempts locked the account.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountDisabled means the account is administratively disabled.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrWeakPassword means a new password failed the complexity policy.
	ErrWeakPassword = errors.New("password does not meet requirements")
)

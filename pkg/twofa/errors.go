package twofa

import "errors"

var (
	// ErrInvalidCode means the submitted code is malformed, wrong, expired,
	// or already used.
	ErrInvalidCode = errors.New("invalid code")

	// ErrCodeDispatchFailed means the code could not be delivered on any
	// requested channel.
	ErrCodeDispatchFailed = errors.New("code dispatch failed")

	// ErrTooManyAttempts means verification is blocked after repeated wrong
	// codes.
	ErrTooManyAttempts = errors.New("too many code attempts")

	// ErrNoSecret means no TOTP secret exists for the user yet.
	ErrNoSecret = errors.New("no two-factor secret")
)

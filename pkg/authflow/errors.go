package authflow

import (
	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/twofa"
)

// Sentinel errors surfaced by the authentication flow. They alias the
// underlying package sentinels so callers can match with errors.Is without
// importing login or twofa directly.
var (
	ErrUserNotFound       = login.ErrUserNotFound
	ErrInvalidCredential  = login.ErrInvalidCredential
	ErrAccountLocked      = login.ErrAccountLocked
	ErrAccountDisabled    = login.ErrAccountDisabled
	ErrInvalidCode        = twofa.ErrInvalidCode
	ErrCodeDispatchFailed = twofa.ErrCodeDispatchFailed
	ErrTooManyAttempts    = twofa.ErrTooManyAttempts
)

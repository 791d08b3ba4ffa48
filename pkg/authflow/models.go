package authflow

import (
	"github.com/clavionx/ecs-auth/pkg/login"
)

// Request carries the credentials and client metadata for one login attempt.
type Request struct {
	Username          string
	Password          string
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
}

// PendingAttempt means credentials checked out but a one-time code is still
// outstanding. Methods lists the channels the code was offered on.
type PendingAttempt struct {
	Username string   `json:"username"`
	Methods  []string `json:"methods"`
}

// AuthenticatedPrincipal is a fully authenticated user together with the
// authority strings derived from their role.
type AuthenticatedPrincipal struct {
	User        login.User `json:"user"`
	Authorities []string   `json:"authorities"`
}

// Result is the outcome of BeginLogin: exactly one of Pending or Principal
// is set.
type Result struct {
	Pending   *PendingAttempt
	Principal *AuthenticatedPrincipal
}

// TwoFactorRequired reports whether the attempt is parked waiting for a code.
func (r Result) TwoFactorRequired() bool {
	return r.Pending != nil
}

package login

import (
	"time"

	"github.com/google/uuid"

	"github.com/clavionx/ecs-auth/pkg/rbac"
)

// TwoFactorMethod is the delivery channel preference for one-time codes.
type TwoFactorMethod string

const (
	MethodEmail TwoFactorMethod = "EMAIL"
	MethodPhone TwoFactorMethod = "PHONE"
	MethodBoth  TwoFactorMethod = "BOTH"
)

// User is an authentication principal.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         rbac.Role `json:"role"`
	Enabled      bool      `json:"enabled"`

	TwoFactorEnabled bool            `json:"two_factor_enabled"`
	TwoFactorMethod  TwoFactorMethod `json:"two_factor_method,omitempty"` // empty means unset, treated as EMAIL
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`

	// Lockout bookkeeping
	FailedAttempts int        `json:"failed_attempts"`
	LastFailedAt   *time.Time `json:"last_failed_at,omitempty"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Locked reports whether the account is currently locked out.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// PreferredMethod returns the configured code delivery method, falling back to
// EMAIL when unset.
func (u User) PreferredMethod() TwoFactorMethod {
	switch u.TwoFactorMethod {
	case MethodEmail, MethodPhone, MethodBoth:
		return u.TwoFactorMethod
	default:
		return MethodEmail
	}
}

// LoginAttempt is an audit record of one credential or code verification.
type LoginAttempt struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	IPAddress         string    `json:"ip_address,omitempty"`
	UserAgent         string    `json:"user_agent,omitempty"`
	DeviceFingerprint string    `json:"device_fingerprint,omitempty"`
	Success           bool      `json:"success"`
	FailureReason     string    `json:"failure_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

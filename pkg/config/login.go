package config

import "time"

// LoginConfig contains credential verification settings.
// Fields have no env tags - populate manually or use NewLoginConfigFromEnv() for standard env var names.
type LoginConfig struct {
	// MaxFailedAttempts is the maximum number of failed login attempts before
	// lockout. 0 disables lockout.
	MaxFailedAttempts int

	// LockoutDuration is how long an account stays locked after exceeding
	// MaxFailedAttempts
	LockoutDuration time.Duration
}

// DefaultLoginConfig returns a LoginConfig with sensible defaults
func DefaultLoginConfig() LoginConfig {
	return LoginConfig{
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
	}
}

// NewLoginConfigFromEnv loads LoginConfig from standard environment variables.
//
// Environment variables:
//   - LOGIN_MAX_FAILED_ATTEMPTS: Failed attempts before lockout, 0 = disabled (default: 5)
//   - LOGIN_LOCKOUT_DURATION: Lockout duration (default: "15m")
func NewLoginConfigFromEnv() LoginConfig {
	return LoginConfig{
		MaxFailedAttempts: GetEnvInt("LOGIN_MAX_FAILED_ATTEMPTS", 5),
		LockoutDuration:   GetEnvDuration("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
	}
}

package config

import "time"

// TwoFactorConfig contains one-time code settings.
// Fields have no env tags - populate manually or use NewTwoFactorConfigFromEnv() for standard env var names.
type TwoFactorConfig struct {
	// CodePeriod is the validity window of an issued code
	CodePeriod time.Duration

	// MaxFailedCodes is the number of wrong codes tolerated per pending login
	// before the account is temporarily locked. 0 disables the limit.
	MaxFailedCodes int

	// LockWindow is how long verification stays blocked after MaxFailedCodes
	// wrong codes
	LockWindow time.Duration
}

// DefaultTwoFactorConfig returns a TwoFactorConfig with sensible defaults
func DefaultTwoFactorConfig() TwoFactorConfig {
	return TwoFactorConfig{
		CodePeriod:     5 * time.Minute,
		MaxFailedCodes: 5,
		LockWindow:     10 * time.Minute,
	}
}

// NewTwoFactorConfigFromEnv loads TwoFactorConfig from standard environment variables.
//
// Environment variables:
//   - TWOFA_CODE_PERIOD: Code validity window (default: "5m")
//   - TWOFA_MAX_FAILED_CODES: Wrong codes tolerated before lock, 0 = unlimited (default: 5)
//   - TWOFA_LOCK_WINDOW: How long verification stays blocked (default: "10m")
func NewTwoFactorConfigFromEnv() TwoFactorConfig {
	return TwoFactorConfig{
		CodePeriod:     GetEnvDuration("TWOFA_CODE_PERIOD", 5*time.Minute),
		MaxFailedCodes: GetEnvInt("TWOFA_MAX_FAILED_CODES", 5),
		LockWindow:     GetEnvDuration("TWOFA_LOCK_WINDOW", 10*time.Minute),
	}
}

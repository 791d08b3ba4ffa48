package config

import (
	"github.com/clavionx/ecs-auth/pkg/login"
)

// PasswordConfig holds the password complexity policy.
// Fields have no env tags - populate manually or use NewPasswordConfigFromEnv() for standard env var names.
type PasswordConfig struct {
	// Enabled turns policy enforcement on; when false any password is
	// accepted
	Enabled bool

	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
	DisallowCommonPwds bool
	MaxRepeatedChars   int
}

// DefaultPasswordConfig returns a PasswordConfig with sensible defaults
func DefaultPasswordConfig() PasswordConfig {
	return PasswordConfig{
		Enabled:            true,
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: false,
		DisallowCommonPwds: true,
		MaxRepeatedChars:   3,
	}
}

// ToPasswordPolicy converts the config to a login.PasswordPolicy
func (c PasswordConfig) ToPasswordPolicy() login.PasswordPolicy {
	if !c.Enabled {
		return login.NoOpPasswordPolicy()
	}
	return login.PasswordPolicy{
		MinLength:          c.MinLength,
		RequireUppercase:   c.RequireUppercase,
		RequireLowercase:   c.RequireLowercase,
		RequireDigit:       c.RequireDigit,
		RequireSpecialChar: c.RequireSpecialChar,
		DisallowCommonPwds: c.DisallowCommonPwds,
		MaxRepeatedChars:   c.MaxRepeatedChars,
	}
}

// NewPasswordConfigFromEnv loads PasswordConfig from standard environment variables.
//
// Environment variables:
//   - PASSWORD_POLICY_ENABLED: Enforce the policy (default: true)
//   - PASSWORD_MIN_LENGTH: Minimum length (default: 8)
//   - PASSWORD_REQUIRE_UPPERCASE: Require an uppercase letter (default: true)
//   - PASSWORD_REQUIRE_LOWERCASE: Require a lowercase letter (default: true)
//   - PASSWORD_REQUIRE_DIGIT: Require a digit (default: true)
//   - PASSWORD_REQUIRE_SPECIAL: Require a special character (default: false)
//   - PASSWORD_DISALLOW_COMMON: Reject well-known passwords (default: true)
//   - PASSWORD_MAX_REPEATED_CHARS: Longest allowed run of one character (default: 3)
func NewPasswordConfigFromEnv() PasswordConfig {
	return PasswordConfig{
		Enabled:            GetEnvBool("PASSWORD_POLICY_ENABLED", true),
		MinLength:          GetEnvInt("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase:   GetEnvBool("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase:   GetEnvBool("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireDigit:       GetEnvBool("PASSWORD_REQUIRE_DIGIT", true),
		RequireSpecialChar: GetEnvBool("PASSWORD_REQUIRE_SPECIAL", false),
		DisallowCommonPwds: GetEnvBool("PASSWORD_DISALLOW_COMMON", true),
		MaxRepeatedChars:   GetEnvInt("PASSWORD_MAX_REPEATED_CHARS", 3),
	}
}

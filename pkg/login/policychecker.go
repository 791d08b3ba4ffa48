package login

import (
	"fmt"
	"strings"
)

// PasswordPolicy describes the complexity requirements for new passwords.
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
	DisallowCommonPwds bool
	MaxRepeatedChars   int
}

// DefaultPasswordPolicy returns a default password policy
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: false,
		DisallowCommonPwds: true,
		MaxRepeatedChars:   3,
	}
}

// NoOpPasswordPolicy returns a policy that accepts any password
func NoOpPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{}
}

// Small sample; production deployments load a larger list.
var commonPasswords = map[string]bool{
	"password": true, "123456": true, "12345678": true, "qwerty": true,
	"admin": true, "welcome": true, "login": true, "abc123": true,
	"letmein": true, "monkey": true,
}

// Check verifies that a password meets the complexity requirements. The
// returned error wraps ErrWeakPassword.
func (p PasswordPolicy) Check(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, p.MinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}
	if p.RequireLowercase && !hasLower {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	}
	if p.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: must contain at least one digit", ErrWeakPassword)
	}
	if p.RequireSpecialChar && !hasSpecial {
		return fmt.Errorf("%w: must contain at least one special character", ErrWeakPassword)
	}

	if p.DisallowCommonPwds && commonPasswords[strings.ToLower(password)] {
		return fmt.Errorf("%w: too common, choose a more secure password", ErrWeakPassword)
	}

	if p.MaxRepeatedChars > 0 && hasRepeatedChars(password, p.MaxRepeatedChars+1) {
		return fmt.Errorf("%w: cannot repeat a character more than %d times in a row", ErrWeakPassword, p.MaxRepeatedChars)
	}

	return nil
}

func hasRepeatedChars(password string, run int) bool {
	for i := 0; i+run <= len(password); i++ {
		if strings.Count(password[i:i+run], string(password[i])) == run {
			return true
		}
	}
	return false
}

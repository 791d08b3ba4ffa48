package config

import "time"

// SessionConfig contains session registry settings.
// Fields have no env tags - populate manually or use NewSessionConfigFromEnv() for standard env var names.
type SessionConfig struct {
	// InactivityTimeout is how long a session may stay idle before the
	// cleanup job terminates it
	InactivityTimeout time.Duration

	// MaxSessionsPerUser caps concurrent active sessions per user; the oldest
	// session is evicted when the cap is exceeded. 0 means unlimited.
	MaxSessionsPerUser int

	// SingleSession forces at most one active session per user. Equivalent to
	// MaxSessionsPerUser=1 and takes precedence over it.
	SingleSession bool

	// CleanupInterval is how often the background cleaner runs
	CleanupInterval time.Duration

	// RetentionPeriod is how long terminated or idle session rows are kept
	// before the retention purge deletes them
	RetentionPeriod time.Duration

	// CookieName is the session cookie name
	CookieName string

	// CookieSecure marks the session cookie Secure
	CookieSecure bool
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		InactivityTimeout:  30 * time.Minute,
		MaxSessionsPerUser: 5,
		SingleSession:      false,
		CleanupInterval:    5 * time.Minute,
		RetentionPeriod:    30 * 24 * time.Hour,
		CookieName:         "ecs_session",
		CookieSecure:       false,
	}
}

// NewSessionConfigFromEnv loads SessionConfig from standard environment variables.
// This is an optional convenience function - you can also populate the struct manually.
//
// Environment variables:
//   - SESSION_INACTIVITY_TIMEOUT: Idle timeout before cleanup (default: "30m")
//   - SESSION_MAX_PER_USER: Max concurrent sessions per user, 0 = unlimited (default: 5)
//   - SESSION_SINGLE: Force a single active session per user (default: false)
//   - SESSION_CLEANUP_INTERVAL: Background cleaner interval (default: "5m")
//   - SESSION_RETENTION_PERIOD: How long dead rows are kept (default: "720h")
//   - SESSION_COOKIE_NAME: Session cookie name (default: "ecs_session")
//   - SESSION_COOKIE_SECURE: Mark the cookie Secure (default: false)
func NewSessionConfigFromEnv() SessionConfig {
	return SessionConfig{
		InactivityTimeout:  GetEnvDuration("SESSION_INACTIVITY_TIMEOUT", 30*time.Minute),
		MaxSessionsPerUser: GetEnvInt("SESSION_MAX_PER_USER", 5),
		SingleSession:      GetEnvBool("SESSION_SINGLE", false),
		CleanupInterval:    GetEnvDuration("SESSION_CLEANUP_INTERVAL", 5*time.Minute),
		RetentionPeriod:    GetEnvDuration("SESSION_RETENTION_PERIOD", 30*24*time.Hour),
		CookieName:         GetEnvOrDefault("SESSION_COOKIE_NAME", "ecs_session"),
		CookieSecure:       GetEnvBool("SESSION_COOKIE_SECURE", false),
	}
}

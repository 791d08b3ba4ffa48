package config

// TrackingConfig contains session tracking middleware settings.
// Fields have no env tags - populate manually or use NewTrackingConfigFromEnv() for standard env var names.
type TrackingConfig struct {
	// TrackAnonymous records activity for GUEST principals as well
	TrackAnonymous bool

	// LogActivity emits a debug log line per tracked request
	LogActivity bool

	// Strict turns tracking failures into request failures instead of
	// logged no-ops
	Strict bool
}

// DefaultTrackingConfig returns a TrackingConfig with sensible defaults
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		TrackAnonymous: false,
		LogActivity:    false,
		Strict:         false,
	}
}

// NewTrackingConfigFromEnv loads TrackingConfig from standard environment variables.
//
// Environment variables:
//   - TRACKING_ANONYMOUS: Track GUEST activity (default: false)
//   - TRACKING_LOG_ACTIVITY: Debug-log each tracked request (default: false)
//   - TRACKING_STRICT: Fail requests on tracking errors (default: false)
func NewTrackingConfigFromEnv() TrackingConfig {
	return TrackingConfig{
		TrackAnonymous: GetEnvBool("TRACKING_ANONYMOUS", false),
		LogActivity:    GetEnvBool("TRACKING_LOG_ACTIVITY", false),
		Strict:         GetEnvBool("TRACKING_STRICT", false),
	}
}

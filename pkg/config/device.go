package config

import "time"

// DeviceConfig contains trusted-device settings.
// Fields have no env tags - populate manually or use NewDeviceConfigFromEnv() for standard env var names.
type DeviceConfig struct {
	// TrustDuration is how long a remembered device bypasses the one-time
	// code requirement
	TrustDuration time.Duration
}

// DefaultDeviceConfig returns a DeviceConfig with sensible defaults
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		TrustDuration: 90 * 24 * time.Hour,
	}
}

// NewDeviceConfigFromEnv loads DeviceConfig from standard environment variables.
//
// Environment variables:
//   - DEVICE_TRUST_DURATION: Trusted-device lifetime (default: "2160h", 90 days)
func NewDeviceConfigFromEnv() DeviceConfig {
	return DeviceConfig{
		TrustDuration: GetEnvDuration("DEVICE_TRUST_DURATION", 90*24*time.Hour),
	}
}

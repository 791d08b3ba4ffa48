package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDeviceNotFound means no trusted-device record exists for the lookup.
var ErrDeviceNotFound = errors.New("trusted device not found")

// TrustedDevice is a device a user chose to remember after completing a
// one-time code challenge. While the record is valid the code requirement is
// skipped on that device.
type TrustedDevice struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Fingerprint string    `json:"fingerprint"` // unique per user
	DeviceName  string    `json:"device_name,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	TrustedAt   time.Time `json:"trusted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	LastUsed    time.Time `json:"last_used"`
	Active      bool      `json:"active"`
}

// Valid reports whether the trust record bypasses the code requirement.
func (d TrustedDevice) Valid(now time.Time) bool {
	return d.Active && d.ExpiresAt.After(now)
}

// TrustedDeviceRepository defines the interface for trusted-device storage
type TrustedDeviceRepository interface {
	// Get the record for a (user, fingerprint) pair regardless of validity.
	// Returns ErrDeviceNotFound when absent.
	Get(ctx context.Context, userID uuid.UUID, fingerprint string) (TrustedDevice, error)

	// Insert a new record or overwrite the existing one for the pair
	Upsert(ctx context.Context, device TrustedDevice) (TrustedDevice, error)

	// Update the last-used timestamp
	UpdateLastUsed(ctx context.Context, userID uuid.UUID, fingerprint string, lastUsed time.Time) error

	// List every record for a user, most recently used first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]TrustedDevice, error)

	// Deactivate every record for a user
	DeactivateAll(ctx context.Context, userID uuid.UUID) error

	// Delete records whose expiry passed before the cutoff
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DeviceService manages trusted-device records.
type DeviceService struct {
	repo          TrustedDeviceRepository
	trustDuration time.Duration
	nowFn         func() time.Time
}

// DeviceServiceOption configures a DeviceService
type DeviceServiceOption func(*DeviceService)

// WithTrustDuration sets how long a remembered device stays valid
func WithTrustDuration(d time.Duration) DeviceServiceOption {
	return func(s *DeviceService) {
		s.trustDuration = d
	}
}

// WithClock overrides the time source. Test helper.
func WithClock(nowFn func() time.Time) DeviceServiceOption {
	return func(s *DeviceService) {
		s.nowFn = nowFn
	}
}

// NewDeviceService creates a new device service with the given repository
func NewDeviceService(repo TrustedDeviceRepository, opts ...DeviceServiceOption) *DeviceService {
	s := &DeviceService{
		repo:          repo,
		trustDuration: 90 * 24 * time.Hour,
		nowFn:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindValid returns the trusted-device record for the pair if it is active and
// unexpired, and bumps its last-used timestamp. Returns ErrDeviceNotFound for
// unknown, revoked, or expired devices.
func (s *DeviceService) FindValid(ctx context.Context, userID uuid.UUID, fingerprint string) (TrustedDevice, error) {
	now := s.nowFn()

	device, err := s.repo.Get(ctx, userID, fingerprint)
	if err != nil {
		return TrustedDevice{}, err
	}
	if !device.Valid(now) {
		return TrustedDevice{}, ErrDeviceNotFound
	}

	if err := s.repo.UpdateLastUsed(ctx, userID, fingerprint, now); err != nil {
		slog.Warn("Failed to update device last-used", "user_id", userID, "err", err)
	}
	device.LastUsed = now
	return device, nil
}

// Trust remembers a device for the configured duration. An existing record
// for the pair is reactivated and its expiry extended.
func (s *DeviceService) Trust(ctx context.Context, userID uuid.UUID, fingerprint string, meta TrustedDevice) (TrustedDevice, error) {
	now := s.nowFn()

	device := TrustedDevice{
		UserID:      userID,
		Fingerprint: fingerprint,
		DeviceName:  meta.DeviceName,
		UserAgent:   meta.UserAgent,
		IPAddress:   meta.IPAddress,
		TrustedAt:   now,
		ExpiresAt:   now.Add(s.trustDuration),
		LastUsed:    now,
		Active:      true,
	}

	existing, err := s.repo.Get(ctx, userID, fingerprint)
	if err == nil {
		device.ID = existing.ID
		device.TrustedAt = existing.TrustedAt
	} else if !errors.Is(err, ErrDeviceNotFound) {
		return TrustedDevice{}, fmt.Errorf("failed to look up device: %w", err)
	}

	stored, err := s.repo.Upsert(ctx, device)
	if err != nil {
		return TrustedDevice{}, fmt.Errorf("failed to trust device: %w", err)
	}

	slog.Info("Device trusted", "user_id", userID, "expires_at", stored.ExpiresAt.Format(time.RFC3339))
	return stored, nil
}

// ListForUser returns every trusted-device record for a user.
func (s *DeviceService) ListForUser(ctx context.Context, userID uuid.UUID) ([]TrustedDevice, error) {
	devices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// RevokeAll deactivates every trusted device for a user. Used on password
// change and "log out of all devices".
func (s *DeviceService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeactivateAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke devices: %w", err)
	}
	slog.Info("All trusted devices revoked", "user_id", userID)
	return nil
}

// PurgeExpired removes records whose expiry has passed. Idempotent.
func (s *DeviceService) PurgeExpired(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.nowFn())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired devices: %w", err)
	}
	if removed > 0 {
		slog.Info("Purged expired trusted devices", "count", removed)
	}
	return removed, nil
}

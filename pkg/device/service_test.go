package device

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustAndFindValid(t *testing.T) {
	repo := NewInMemTrustedDeviceRepository()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewDeviceService(repo,
		WithTrustDuration(90*24*time.Hour),
		WithClock(func() time.Time { return now }))

	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.FindValid(ctx, userID, "fp-1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	trusted, err := svc.Trust(ctx, userID, "fp-1", TrustedDevice{UserAgent: "Mozilla/5.0"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*24*time.Hour), trusted.ExpiresAt)
	assert.True(t, trusted.Active)

	found, err := svc.FindValid(ctx, userID, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, trusted.ID, found.ID)

	// A different user never matches the same fingerprint.
	_, err = svc.FindValid(ctx, uuid.New(), "fp-1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestExpiredDeviceNotValid(t *testing.T) {
	repo := NewInMemTrustedDeviceRepository()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewDeviceService(repo,
		WithTrustDuration(time.Hour),
		WithClock(func() time.Time { return now }))

	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Trust(ctx, userID, "fp-1", TrustedDevice{})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = svc.FindValid(ctx, userID, "fp-1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestTrustExtendsExisting(t *testing.T) {
	repo := NewInMemTrustedDeviceRepository()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewDeviceService(repo,
		WithTrustDuration(time.Hour),
		WithClock(func() time.Time { return now }))

	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Trust(ctx, userID, "fp-1", TrustedDevice{})
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	second, err := svc.Trust(ctx, userID, "fp-1", TrustedDevice{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TrustedAt, second.TrustedAt)
	assert.Equal(t, now.Add(time.Hour), second.ExpiresAt)
}

func TestRevokeAll(t *testing.T) {
	repo := NewInMemTrustedDeviceRepository()
	svc := NewDeviceService(repo)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Trust(ctx, userID, "fp-1", TrustedDevice{})
	require.NoError(t, err)
	_, err = svc.Trust(ctx, userID, "fp-2", TrustedDevice{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, userID))

	_, err = svc.FindValid(ctx, userID, "fp-1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	_, err = svc.FindValid(ctx, userID, "fp-2")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	// Revoked records stay listed for the management UI.
	devices, err := svc.ListForUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, devices, 2)
	for _, d := range devices {
		assert.False(t, d.Active)
	}
}

func TestPurgeExpired(t *testing.T) {
	repo := NewInMemTrustedDeviceRepository()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewDeviceService(repo,
		WithTrustDuration(time.Hour),
		WithClock(func() time.Time { return now }))

	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Trust(ctx, userID, "fp-old", TrustedDevice{})
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = svc.Trust(ctx, userID, "fp-new", TrustedDevice{})
	require.NoError(t, err)

	now = now.Add(45 * time.Minute) // fp-old expired, fp-new still valid
	removed, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Running again removes nothing.
	removed, err = svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	devices, err := svc.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "fp-new", devices[0].Fingerprint)
}

func TestRequestFingerprint(t *testing.T) {
	makeReq := func(mutate func(map[string]string)) FingerprintData {
		headers := map[string]string{
			"User-Agent":        "Mozilla/5.0 (X11; Linux x86_64)",
			"Accept":            "text/html",
			"Accept-Language":   "en-US",
			"Accept-Encoding":   "gzip",
			"Timezone":          "UTC",
			"Screen-Resolution": "1920x1080",
		}
		if mutate != nil {
			mutate(headers)
		}
		return FingerprintData{
			UserAgent:        headers["User-Agent"],
			AcceptHeaders:    headers["Accept"] + "|" + headers["Accept-Language"] + "|" + headers["Accept-Encoding"],
			Timezone:         headers["Timezone"],
			ScreenResolution: headers["Screen-Resolution"],
		}
	}

	base := GenerateFingerprint(makeReq(nil))
	same := GenerateFingerprint(makeReq(nil))
	assert.Equal(t, base, same)

	different := GenerateFingerprint(makeReq(func(h map[string]string) {
		h["User-Agent"] = "Mozilla/5.0 (Macintosh)"
	}))
	assert.NotEqual(t, base, different)

	// Native clients are fingerprinted by device ID alone.
	mobile := GenerateFingerprint(FingerprintData{DeviceID: "device-123", IsMobile: true})
	mobileAgain := GenerateFingerprint(FingerprintData{
		DeviceID: "device-123", IsMobile: true, UserAgent: "changed",
	})
	assert.Equal(t, mobile, mobileAgain)
}

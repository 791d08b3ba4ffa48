package device

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type pairKey struct {
	userID      uuid.UUID
	fingerprint string
}

// InMemTrustedDeviceRepository implements TrustedDeviceRepository with an
// in-memory map. Intended for tests and development.
type InMemTrustedDeviceRepository struct {
	mu      sync.RWMutex
	devices map[pairKey]TrustedDevice
}

// NewInMemTrustedDeviceRepository creates a new in-memory trusted-device repository
func NewInMemTrustedDeviceRepository() *InMemTrustedDeviceRepository {
	return &InMemTrustedDeviceRepository{
		devices: make(map[pairKey]TrustedDevice),
	}
}

// Get returns the record for a (user, fingerprint) pair
func (r *InMemTrustedDeviceRepository) Get(ctx context.Context, userID uuid.UUID, fingerprint string) (TrustedDevice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, exists := r.devices[pairKey{userID, fingerprint}]
	if !exists {
		return TrustedDevice{}, ErrDeviceNotFound
	}
	return device, nil
}

// Upsert inserts or overwrites the record for the pair
func (r *InMemTrustedDeviceRepository) Upsert(ctx context.Context, device TrustedDevice) (TrustedDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	r.devices[pairKey{device.UserID, device.Fingerprint}] = device
	return device, nil
}

// UpdateLastUsed updates the last-used timestamp
func (r *InMemTrustedDeviceRepository) UpdateLastUsed(ctx context.Context, userID uuid.UUID, fingerprint string, lastUsed time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{userID, fingerprint}
	device, exists := r.devices[key]
	if !exists {
		return ErrDeviceNotFound
	}
	device.LastUsed = lastUsed
	r.devices[key] = device
	return nil
}

// ListByUser returns every record for a user, most recently used first
func (r *InMemTrustedDeviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]TrustedDevice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []TrustedDevice
	for key, device := range r.devices {
		if key.userID == userID {
			result = append(result, device)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastUsed.After(result[j].LastUsed)
	})
	return result, nil
}

// DeactivateAll deactivates every record for a user
func (r *InMemTrustedDeviceRepository) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, device := range r.devices {
		if key.userID == userID && device.Active {
			device.Active = false
			r.devices[key] = device
		}
	}
	return nil
}

// DeleteExpired removes records whose expiry passed before the cutoff
func (r *InMemTrustedDeviceRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, device := range r.devices {
		if device.ExpiresAt.Before(cutoff) {
			delete(r.devices, key)
			removed++
		}
	}
	return removed, nil
}

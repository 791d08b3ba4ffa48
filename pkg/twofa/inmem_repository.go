package twofa

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type consumedKey struct {
	userID uuid.UUID
	code   string
}

type failureState struct {
	count  int
	lastAt time.Time
}

// InMemTwoFaRepository implements TwoFaRepository with in-memory maps.
// Intended for tests and development.
type InMemTwoFaRepository struct {
	mu       sync.Mutex
	secrets  map[uuid.UUID]string
	consumed map[consumedKey]time.Time // value is the record expiry
	failures map[uuid.UUID]failureState
}

// NewInMemTwoFaRepository creates a new in-memory two-factor repository
func NewInMemTwoFaRepository() *InMemTwoFaRepository {
	return &InMemTwoFaRepository{
		secrets:  make(map[uuid.UUID]string),
		consumed: make(map[consumedKey]time.Time),
		failures: make(map[uuid.UUID]failureState),
	}
}

// GetSecret returns the TOTP secret for a user
func (r *InMemTwoFaRepository) GetSecret(ctx context.Context, userID uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	secret, exists := r.secrets[userID]
	if !exists {
		return "", ErrNoSecret
	}
	return secret, nil
}

// SaveSecret stores the TOTP secret for a user
func (r *InMemTwoFaRepository) SaveSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.secrets[userID] = secret
	return nil
}

// ConsumeCode records a code as consumed; false when already consumed
func (r *InMemTwoFaRepository) ConsumeCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := consumedKey{userID, code}
	if _, exists := r.consumed[key]; exists {
		return false, nil
	}
	r.consumed[key] = expiresAt
	return true, nil
}

// PurgeConsumed deletes consumed-code records that expired before the cutoff
func (r *InMemTwoFaRepository) PurgeConsumed(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, expiresAt := range r.consumed {
		if expiresAt.Before(cutoff) {
			delete(r.consumed, key)
			removed++
		}
	}
	return removed, nil
}

// RecordFailure increments and returns the consecutive failure count
func (r *InMemTwoFaRepository) RecordFailure(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.failures[userID]
	state.count++
	state.lastAt = at
	r.failures[userID] = state
	return state.count, nil
}

// GetFailures returns the consecutive failure count and last failure time
func (r *InMemTwoFaRepository) GetFailures(ctx context.Context, userID uuid.UUID) (int, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.failures[userID]
	return state.count, state.lastAt, nil
}

// ResetFailures clears the failure counter
func (r *InMemTwoFaRepository) ResetFailures(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.failures, userID)
	return nil
}

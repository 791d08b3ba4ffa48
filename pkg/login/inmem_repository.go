package login

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemUserRepository implements UserRepository with an in-memory map.
// Intended for tests and development.
type InMemUserRepository struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]User
	byName   map[string]uuid.UUID
	attempts []LoginAttempt
}

// NewInMemUserRepository creates a new in-memory user repository
func NewInMemUserRepository() *InMemUserRepository {
	return &InMemUserRepository{
		users:  make(map[uuid.UUID]User),
		byName: make(map[string]uuid.UUID),
	}
}

// Create adds a new user
func (r *InMemUserRepository) Create(ctx context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[user.Username]; exists {
		return fmt.Errorf("username %s already exists", user.Username)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.users[user.ID] = user
	r.byName[user.Username] = user.ID
	return nil
}

// FindByUsername looks up a user by username
func (r *InMemUserRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byName[username]
	if !exists {
		return User{}, ErrUserNotFound
	}
	return r.users[id], nil
}

// FindByID looks up a user by ID
func (r *InMemUserRepository) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// UpdateLockout updates the lockout bookkeeping for a user
func (r *InMemUserRepository) UpdateLockout(ctx context.Context, id uuid.UUID, failedAttempts int, lastFailedAt *time.Time, lockedUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.FailedAttempts = failedAttempts
	user.LastFailedAt = lastFailedAt
	user.LockedUntil = lockedUntil
	r.users[id] = user
	return nil
}

// UpdatePassword updates the stored password hash
func (r *InMemUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

// RecordAttempt stores a login attempt audit row
func (r *InMemUserRepository) RecordAttempt(ctx context.Context, attempt LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts = append(r.attempts, attempt)
	return nil
}

// ListAttempts returns the most recent attempts for a username
func (r *InMemUserRepository) ListAttempts(ctx context.Context, username string, limit int) ([]LoginAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []LoginAttempt
	for _, a := range r.attempts {
		if a.Username == username {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemSessionRepository implements SessionRepository with an in-memory map.
// Intended for tests and development.
type InMemSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewInMemSessionRepository creates a new in-memory session repository
func NewInMemSessionRepository() *InMemSessionRepository {
	return &InMemSessionRepository{
		sessions: make(map[string]Session),
	}
}

// Create adds a new session row
func (r *InMemSessionRepository) Create(ctx context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session
	return session, nil
}

// GetByID returns a session by ID
func (r *InMemSessionRepository) GetByID(ctx context.Context, id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// ListActiveByUser returns active sessions for a user, oldest login first
func (r *InMemSessionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Active {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LoginTime.Before(result[j].LoginTime)
	})
	return result, nil
}

// ListByUser returns all sessions for a user, newest login first
func (r *InMemSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LoginTime.After(result[j].LoginTime)
	})
	return result, nil
}

// Touch updates last_activity on an active session
func (r *InMemSessionRepository) Touch(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists || !session.Active {
		return false, nil
	}
	session.LastActivity = now
	r.sessions[id] = session
	return true, nil
}

// Terminate ends a session; false when missing or already terminated
func (r *InMemSessionRepository) Terminate(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists || !session.Active {
		return false, nil
	}
	session.Active = false
	session.LogoutTime = &now
	r.sessions[id] = session
	return true, nil
}

// TerminateAllForUser ends every active session for a user except one
func (r *InMemSessionRepository) TerminateAllForUser(ctx context.Context, userID uuid.UUID, exceptID string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, session := range r.sessions {
		if session.UserID == userID && session.Active && id != exceptID {
			session.Active = false
			logout := now
			session.LogoutTime = &logout
			r.sessions[id] = session
			count++
		}
	}
	return count, nil
}

// TerminateIdleSince ends active sessions idle since before the cutoff.
// The idle re-check happens under the same lock as the write, so a session
// touched after the caller decided to sweep is left alone.
func (r *InMemSessionRepository) TerminateIdleSince(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, session := range r.sessions {
		if session.Active && session.LastActivity.Before(cutoff) {
			session.Active = false
			logout := now
			session.LogoutTime = &logout
			r.sessions[id] = session
			count++
		}
	}
	return count, nil
}

// DeleteInactiveOlderThan removes dead rows older than the cutoff
func (r *InMemSessionRepository) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, session := range r.sessions {
		if !session.Active && session.LastActivity.Before(cutoff) {
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}

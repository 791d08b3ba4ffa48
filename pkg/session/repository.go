package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository defines the interface for session data access.
// Mutations are row-atomic: terminate operations re-check state at write
// time so they never clobber a concurrent touch or double-terminate.
type SessionRepository interface {
	// Create a new session row
	Create(ctx context.Context, session Session) (Session, error)

	// Get a session by ID. Returns ErrSessionNotFound when absent.
	GetByID(ctx context.Context, id string) (Session, error)

	// List active sessions for a user, oldest login first
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)

	// List all sessions for a user, newest login first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)

	// Update last_activity on an active session. Returns false without
	// error when the session is missing or inactive.
	Touch(ctx context.Context, id string, now time.Time) (bool, error)

	// Terminate a session. Returns false without error when the session is
	// missing or already terminated.
	Terminate(ctx context.Context, id string, now time.Time) (bool, error)

	// Terminate every active session for a user except the given one
	// (exceptID may be empty). Returns the number terminated.
	TerminateAllForUser(ctx context.Context, userID uuid.UUID, exceptID string, now time.Time) (int, error)

	// Terminate active sessions whose last_activity is before the cutoff.
	// The cutoff comparison happens at write time: a session touched after
	// the caller's scan is left alone.
	TerminateIdleSince(ctx context.Context, cutoff time.Time, now time.Time) (int, error)

	// Delete inactive sessions whose logout or last activity is before the
	// cutoff. Returns the number deleted.
	DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

package login

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create a new user
	Create(ctx context.Context, user User) error

	// Find a user by username. Returns ErrUserNotFound when absent.
	FindByUsername(ctx context.Context, username string) (User, error)

	// Find a user by ID. Returns ErrUserNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (User, error)

	// Update the lockout bookkeeping for a user
	UpdateLockout(ctx context.Context, id uuid.UUID, failedAttempts int, lastFailedAt *time.Time, lockedUntil *time.Time) error

	// Update the stored password hash
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// Record a login attempt for auditing
	RecordAttempt(ctx context.Context, attempt LoginAttempt) error

	// List the most recent login attempts for a username
	ListAttempts(ctx context.Context, username string, limit int) ([]LoginAttempt, error)
}

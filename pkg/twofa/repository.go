package twofa

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TwoFaRepository defines the interface for two-factor state storage
type TwoFaRepository interface {
	// Get the TOTP secret for a user. Returns ErrNoSecret when absent.
	GetSecret(ctx context.Context, userID uuid.UUID) (string, error)

	// Store the TOTP secret for a user
	SaveSecret(ctx context.Context, userID uuid.UUID, secret string) error

	// Record a code as consumed. Returns false when the code was already
	// consumed for this user. expiresAt bounds how long the record must be
	// kept to block replays.
	ConsumeCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (bool, error)

	// Delete consumed-code records that expired before the cutoff
	PurgeConsumed(ctx context.Context, cutoff time.Time) (int, error)

	// Record a failed verification and return the consecutive failure count
	RecordFailure(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)

	// Get the consecutive failure count and the time of the last failure
	GetFailures(ctx context.Context, userID uuid.UUID) (int, time.Time, error)

	// Reset the failure counter
	ResetFailures(ctx context.Context, userID uuid.UUID) error
}

package twofa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTwoFaRepository implements TwoFaRepository using PostgreSQL
type PostgresTwoFaRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTwoFaRepository creates a new PostgreSQL two-factor repository
func NewPostgresTwoFaRepository(pool *pgxpool.Pool) *PostgresTwoFaRepository {
	return &PostgresTwoFaRepository{
		pool: pool,
	}
}

// GetSecret returns the TOTP secret for a user
func (r *PostgresTwoFaRepository) GetSecret(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `SELECT secret FROM twofa_secrets WHERE user_id = $1`

	var secret string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoSecret
		}
		return "", fmt.Errorf("failed to get secret: %w", err)
	}
	return secret, nil
}

// SaveSecret stores the TOTP secret for a user
func (r *PostgresTwoFaRepository) SaveSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	query := `
		INSERT INTO twofa_secrets (user_id, secret)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET secret = EXCLUDED.secret
	`

	_, err := r.pool.Exec(ctx, query, userID, secret)
	if err != nil {
		return fmt.Errorf("failed to save secret: %w", err)
	}
	return nil
}

// ConsumeCode records a code as consumed; false when already consumed
func (r *PostgresTwoFaRepository) ConsumeCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (bool, error) {
	query := `
		INSERT INTO twofa_consumed_codes (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, code) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, userID, code, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// PurgeConsumed deletes consumed-code records that expired before the cutoff
func (r *PostgresTwoFaRepository) PurgeConsumed(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM twofa_consumed_codes WHERE expires_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge consumed codes: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// RecordFailure increments and returns the consecutive failure count
func (r *PostgresTwoFaRepository) RecordFailure(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	query := `
		INSERT INTO twofa_failures (user_id, fail_count, last_failure_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			fail_count = twofa_failures.fail_count + 1,
			last_failure_at = EXCLUDED.last_failure_at
		RETURNING fail_count
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, at).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to record failure: %w", err)
	}
	return count, nil
}

// GetFailures returns the consecutive failure count and last failure time
func (r *PostgresTwoFaRepository) GetFailures(ctx context.Context, userID uuid.UUID) (int, time.Time, error) {
	query := `SELECT fail_count, last_failure_at FROM twofa_failures WHERE user_id = $1`

	var count int
	var lastAt time.Time
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count, &lastAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, nil
		}
		return 0, time.Time{}, fmt.Errorf("failed to get failures: %w", err)
	}
	return count, lastAt, nil
}

// ResetFailures clears the failure counter
func (r *PostgresTwoFaRepository) ResetFailures(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM twofa_failures WHERE user_id = $1`

	_, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to reset failures: %w", err)
	}
	return nil
}

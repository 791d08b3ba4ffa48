package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSessionRepository implements SessionRepository using PostgreSQL.
// All terminate operations carry their state predicate inside the UPDATE so
// they are atomic with respect to concurrent touches.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository
func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{
		pool: pool,
	}
}

const sessionColumns = `
	id, user_id, username, login_time, last_activity, logout_time, active,
	ip_address, user_agent, device_fingerprint
`

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Username,
		&s.LoginTime,
		&s.LastActivity,
		&s.LogoutTime,
		&s.Active,
		&s.IPAddress,
		&s.UserAgent,
		&s.DeviceFingerprint,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	return s, nil
}

// Create adds a new session row
func (r *PostgresSessionRepository) Create(ctx context.Context, session Session) (Session, error) {
	query := `
		INSERT INTO sessions (
			id, user_id, username, login_time, last_activity, active,
			ip_address, user_agent, device_fingerprint
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + sessionColumns

	return scanSession(r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Username,
		session.LoginTime,
		session.LastActivity,
		session.Active,
		session.IPAddress,
		session.UserAgent,
		session.DeviceFingerprint,
	))
}

// GetByID returns a session by ID
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresSessionRepository) list(ctx context.Context, query string, args ...any) ([]Session, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", rows.Err())
	}
	return sessions, nil
}

// ListActiveByUser returns active sessions for a user, oldest login first
func (r *PostgresSessionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		  AND active = TRUE
		ORDER BY login_time ASC
	`
	return r.list(ctx, query, userID)
}

// ListByUser returns all sessions for a user, newest login first
func (r *PostgresSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		ORDER BY login_time DESC
	`
	return r.list(ctx, query, userID)
}

// Touch updates last_activity on an active session
func (r *PostgresSessionRepository) Touch(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET last_activity = $2
		WHERE id = $1
		  AND active = TRUE
	`

	result, err := r.pool.Exec(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Terminate ends a session; false when missing or already terminated
func (r *PostgresSessionRepository) Terminate(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET active = FALSE,
		    logout_time = $2
		WHERE id = $1
		  AND active = TRUE
	`

	result, err := r.pool.Exec(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to terminate session: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// TerminateAllForUser ends every active session for a user except one
func (r *PostgresSessionRepository) TerminateAllForUser(ctx context.Context, userID uuid.UUID, exceptID string, now time.Time) (int, error) {
	query := `
		UPDATE sessions
		SET active = FALSE,
		    logout_time = $3
		WHERE user_id = $1
		  AND id != $2
		  AND active = TRUE
	`

	result, err := r.pool.Exec(ctx, query, userID, exceptID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to terminate sessions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// TerminateIdleSince ends active sessions idle since before the cutoff.
// The cutoff predicate lives inside the UPDATE, so a session touched after
// the caller's scan keeps its new activity and survives.
func (r *PostgresSessionRepository) TerminateIdleSince(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	query := `
		UPDATE sessions
		SET active = FALSE,
		    logout_time = $2
		WHERE active = TRUE
		  AND last_activity < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("failed to terminate idle sessions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// DeleteInactiveOlderThan removes dead rows older than the cutoff
func (r *PostgresSessionRepository) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM sessions
		WHERE active = FALSE
		  AND last_activity < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old sessions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clavionx/ecs-auth/pkg/rbac"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{
		pool: pool,
	}
}

const userColumns = `
	id, username, password_hash, role, enabled,
	two_factor_enabled, two_factor_method, email, phone,
	failed_attempts, last_failed_at, locked_until, created_at
`

func scanUser(row pgx.Row) (User, error) {
	var user User
	var roleName string
	var method *string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&roleName,
		&user.Enabled,
		&user.TwoFactorEnabled,
		&method,
		&user.Email,
		&user.Phone,
		&user.FailedAttempts,
		&user.LastFailedAt,
		&user.LockedUntil,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to scan user: %w", err)
	}

	role, err := rbac.ParseRole(roleName)
	if err != nil {
		return User{}, fmt.Errorf("user %s has invalid role: %w", user.Username, err)
	}
	user.Role = role
	if method != nil {
		user.TwoFactorMethod = TwoFactorMethod(*method)
	}
	return user, nil
}

// Create adds a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user User) error {
	query := `
		INSERT INTO users (
			id, username, password_hash, role, enabled,
			two_factor_enabled, two_factor_method, email, phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	var method *string
	if user.TwoFactorMethod != "" {
		m := string(user.TwoFactorMethod)
		method = &m
	}

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role.Name(),
		user.Enabled,
		user.TwoFactorEnabled,
		method,
		user.Email,
		user.Phone,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByUsername looks up a user by username
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

// FindByID looks up a user by ID
func (r *PostgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateLockout updates the lockout bookkeeping for a user
func (r *PostgresUserRepository) UpdateLockout(ctx context.Context, id uuid.UUID, failedAttempts int, lastFailedAt *time.Time, lockedUntil *time.Time) error {
	query := `
		UPDATE users
		SET failed_attempts = $2,
		    last_failed_at = $3,
		    locked_until = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, failedAttempts, lastFailedAt, lockedUntil)
	if err != nil {
		return fmt.Errorf("failed to update lockout: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword updates the stored password hash
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordAttempt stores a login attempt audit row
func (r *PostgresUserRepository) RecordAttempt(ctx context.Context, attempt LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (
			id, username, ip_address, user_agent, device_fingerprint,
			success, failure_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		attempt.ID,
		attempt.Username,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.DeviceFingerprint,
		attempt.Success,
		attempt.FailureReason,
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the most recent attempts for a username
func (r *PostgresUserRepository) ListAttempts(ctx context.Context, username string, limit int) ([]LoginAttempt, error) {
	query := `
		SELECT id, username, ip_address, user_agent, device_fingerprint,
		       success, failure_reason, created_at
		FROM login_attempts
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list login attempts: %w", err)
	}
	defer rows.Close()

	var attempts []LoginAttempt
	for rows.Next() {
		var a LoginAttempt
		err := rows.Scan(
			&a.ID,
			&a.Username,
			&a.IPAddress,
			&a.UserAgent,
			&a.DeviceFingerprint,
			&a.Success,
			&a.FailureReason,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating login attempts: %w", rows.Err())
	}

	return attempts, nil
}

package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTrustedDeviceRepository implements TrustedDeviceRepository using PostgreSQL
type PostgresTrustedDeviceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTrustedDeviceRepository creates a new PostgreSQL trusted-device repository
func NewPostgresTrustedDeviceRepository(pool *pgxpool.Pool) *PostgresTrustedDeviceRepository {
	return &PostgresTrustedDeviceRepository{
		pool: pool,
	}
}

const deviceColumns = `
	id, user_id, fingerprint, device_name, user_agent, ip_address,
	trusted_at, expires_at, last_used, active
`

func scanDevice(row pgx.Row) (TrustedDevice, error) {
	var d TrustedDevice
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Fingerprint,
		&d.DeviceName,
		&d.UserAgent,
		&d.IPAddress,
		&d.TrustedAt,
		&d.ExpiresAt,
		&d.LastUsed,
		&d.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TrustedDevice{}, ErrDeviceNotFound
		}
		return TrustedDevice{}, fmt.Errorf("failed to scan trusted device: %w", err)
	}
	return d, nil
}

// Get returns the record for a (user, fingerprint) pair
func (r *PostgresTrustedDeviceRepository) Get(ctx context.Context, userID uuid.UUID, fingerprint string) (TrustedDevice, error) {
	query := `SELECT ` + deviceColumns + ` FROM trusted_devices WHERE user_id = $1 AND fingerprint = $2`
	return scanDevice(r.pool.QueryRow(ctx, query, userID, fingerprint))
}

// Upsert inserts or overwrites the record for the pair
func (r *PostgresTrustedDeviceRepository) Upsert(ctx context.Context, device TrustedDevice) (TrustedDevice, error) {
	query := `
		INSERT INTO trusted_devices (
			id, user_id, fingerprint, device_name, user_agent, ip_address,
			trusted_at, expires_at, last_used, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, fingerprint) DO UPDATE SET
			device_name = EXCLUDED.device_name,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address,
			expires_at = EXCLUDED.expires_at,
			last_used = EXCLUDED.last_used,
			active = EXCLUDED.active
		RETURNING ` + deviceColumns

	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}

	return scanDevice(r.pool.QueryRow(ctx, query,
		device.ID,
		device.UserID,
		device.Fingerprint,
		device.DeviceName,
		device.UserAgent,
		device.IPAddress,
		device.TrustedAt,
		device.ExpiresAt,
		device.LastUsed,
		device.Active,
	))
}

// UpdateLastUsed updates the last-used timestamp
func (r *PostgresTrustedDeviceRepository) UpdateLastUsed(ctx context.Context, userID uuid.UUID, fingerprint string, lastUsed time.Time) error {
	query := `
		UPDATE trusted_devices
		SET last_used = $3
		WHERE user_id = $1 AND fingerprint = $2
	`

	result, err := r.pool.Exec(ctx, query, userID, fingerprint, lastUsed)
	if err != nil {
		return fmt.Errorf("failed to update device last-used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// ListByUser returns every record for a user, most recently used first
func (r *PostgresTrustedDeviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]TrustedDevice, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM trusted_devices
		WHERE user_id = $1
		ORDER BY last_used DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted devices: %w", err)
	}
	defer rows.Close()

	var devices []TrustedDevice
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating trusted devices: %w", rows.Err())
	}

	return devices, nil
}

// DeactivateAll deactivates every record for a user
func (r *PostgresTrustedDeviceRepository) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE trusted_devices
		SET active = FALSE
		WHERE user_id = $1
		  AND active = TRUE
	`

	_, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate trusted devices: %w", err)
	}
	return nil
}

// DeleteExpired removes records whose expiry passed before the cutoff
func (r *PostgresTrustedDeviceRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM trusted_devices
		WHERE expires_at < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired devices: %w", err)
	}
	return int(result.RowsAffected()), nil
}

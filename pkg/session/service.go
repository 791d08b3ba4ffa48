package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/session/sessionmetrics"
)

// SessionService is the session registry: it creates, touches, terminates,
// and sweeps sessions, and enforces the per-user concurrency policy.
type SessionService struct {
	repo SessionRepository

	// policy
	maxSessionsPerUser int // 0 = unlimited
	inactivityTimeout  time.Duration
	retentionPeriod    time.Duration

	nowFn func() time.Time
}

// SessionServiceOption configures a SessionService
type SessionServiceOption func(*SessionService)

// WithMaxSessionsPerUser caps concurrent active sessions per user; the oldest
// session is evicted when the cap would be exceeded. 0 means unlimited.
func WithMaxSessionsPerUser(max int) SessionServiceOption {
	return func(s *SessionService) {
		s.maxSessionsPerUser = max
	}
}

// WithSingleSession forces at most one active session per user
func WithSingleSession() SessionServiceOption {
	return func(s *SessionService) {
		s.maxSessionsPerUser = 1
	}
}

// WithInactivityTimeout sets the idle window after which CleanupStale
// terminates a session
func WithInactivityTimeout(d time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.inactivityTimeout = d
	}
}

// WithRetentionPeriod sets how long dead session rows are kept before
// PurgeInactive deletes them
func WithRetentionPeriod(d time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.retentionPeriod = d
	}
}

// WithClock overrides the time source. Test helper.
func WithClock(nowFn func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowFn = nowFn
	}
}

// NewSessionService creates a new SessionService
func NewSessionService(repo SessionRepository, opts ...SessionServiceOption) *SessionService {
	s := &SessionService{
		repo:               repo,
		maxSessionsPerUser: 5,
		inactivityTimeout:  30 * time.Minute,
		retentionPeriod:    30 * 24 * time.Hour,
		nowFn:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new active session for the user. When the per-user cap is
// reached the oldest active session is terminated first.
func (s *SessionService) Create(ctx context.Context, user login.User, meta Meta) (Session, error) {
	now := s.nowFn()

	if s.maxSessionsPerUser > 0 {
		if err := s.evictOldest(ctx, user.ID, now); err != nil {
			return Session{}, err
		}
	}

	session := Session{
		ID:                uuid.New().String(),
		UserID:            user.ID,
		Username:          user.Username,
		LoginTime:         now,
		LastActivity:      now,
		Active:            true,
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		DeviceFingerprint: meta.DeviceFingerprint,
	}

	created, err := s.repo.Create(ctx, session)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	sessionmetrics.SessionsCreated.Inc()
	slog.Info("Session created", "username", user.Username, "session_id", created.ID)
	return created, nil
}

// evictOldest terminates active sessions until one slot is free.
func (s *SessionService) evictOldest(ctx context.Context, userID uuid.UUID, now time.Time) error {
	active, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list active sessions: %w", err)
	}
	for len(active) >= s.maxSessionsPerUser {
		oldest := active[0]
		terminated, err := s.repo.Terminate(ctx, oldest.ID, now)
		if err != nil {
			return fmt.Errorf("failed to evict session: %w", err)
		}
		if terminated {
			sessionmetrics.SessionsTerminated.WithLabelValues("evicted").Inc()
			slog.Info("Oldest session evicted", "user_id", userID, "session_id", oldest.ID)
		}
		active = active[1:]
	}
	return nil
}

// GetSession returns a session by ID.
func (s *SessionService) GetSession(ctx context.Context, id string) (Session, error) {
	return s.repo.GetByID(ctx, id)
}

// IsActive reports whether the session exists and is active.
func (s *SessionService) IsActive(ctx context.Context, id string) (bool, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return session.Active, nil
}

// ListActiveForUser returns the user's active sessions, oldest login first.
func (s *SessionService) ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	return s.repo.ListActiveByUser(ctx, userID)
}

// ListAllForUser returns every session row for the user, newest login first.
func (s *SessionService) ListAllForUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Touch updates the session's last-activity timestamp. A missing or already
// terminated session is a logged no-op, never an error, and is never
// reactivated.
func (s *SessionService) Touch(ctx context.Context, id string) error {
	touched, err := s.repo.Touch(ctx, id, s.nowFn())
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if !touched {
		sessionmetrics.TouchFailures.Inc()
		slog.Debug("Touch on missing or inactive session", "session_id", id)
	}
	return nil
}

// Terminate ends a session. Idempotent: terminating a terminated or missing
// session is a no-op.
func (s *SessionService) Terminate(ctx context.Context, id string) error {
	terminated, err := s.repo.Terminate(ctx, id, s.nowFn())
	if err != nil {
		return fmt.Errorf("failed to terminate session: %w", err)
	}
	if terminated {
		sessionmetrics.SessionsTerminated.WithLabelValues("logout").Inc()
		slog.Info("Session terminated", "session_id", id)
	}
	return nil
}

// TerminateAllForUser ends every active session for the user except the
// given one (exceptID may be empty to end them all).
func (s *SessionService) TerminateAllForUser(ctx context.Context, userID uuid.UUID, exceptID string) (int, error) {
	count, err := s.repo.TerminateAllForUser(ctx, userID, exceptID, s.nowFn())
	if err != nil {
		return 0, fmt.Errorf("failed to terminate sessions: %w", err)
	}
	if count > 0 {
		sessionmetrics.SessionsTerminated.WithLabelValues("bulk").Add(float64(count))
		slog.Info("Sessions terminated for user", "user_id", userID, "count", count)
	}
	return count, nil
}

// CleanupStale terminates sessions idle longer than the inactivity timeout.
// The idle check is re-evaluated at write time, so a session touched while
// the sweep runs survives it.
func (s *SessionService) CleanupStale(ctx context.Context) (int, error) {
	now := s.nowFn()
	cutoff := now.Add(-s.inactivityTimeout)

	count, err := s.repo.TerminateIdleSince(ctx, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale sessions: %w", err)
	}
	if count > 0 {
		sessionmetrics.SessionsTerminated.WithLabelValues("stale").Add(float64(count))
		slog.Info("Stale sessions terminated", "count", count)
	}
	return count, nil
}

// PurgeInactive deletes dead session rows older than the retention period.
func (s *SessionService) PurgeInactive(ctx context.Context) (int, error) {
	cutoff := s.nowFn().Add(-s.retentionPeriod)

	count, err := s.repo.DeleteInactiveOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	if count > 0 {
		slog.Info("Old session rows purged", "count", count)
	}
	return count, nil
}

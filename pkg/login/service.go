package login

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LoginService verifies credentials and maintains the lockout counters.
type LoginService struct {
	repo   UserRepository
	hasher PasswordHasher
	policy PasswordPolicy

	// lockout policy; maxFailedAttempts == 0 disables lockout
	maxFailedAttempts int
	lockoutDuration   time.Duration

	nowFn func() time.Time
}

// LoginServiceOption configures a LoginService
type LoginServiceOption func(*LoginService)

// WithPasswordHasher sets the password hasher implementation
func WithPasswordHasher(hasher PasswordHasher) LoginServiceOption {
	return func(s *LoginService) {
		s.hasher = hasher
	}
}

// WithLockoutPolicy sets the failed-attempt threshold and lockout duration.
// maxFailedAttempts of 0 disables lockout entirely.
func WithLockoutPolicy(maxFailedAttempts int, lockoutDuration time.Duration) LoginServiceOption {
	return func(s *LoginService) {
		s.maxFailedAttempts = maxFailedAttempts
		s.lockoutDuration = lockoutDuration
	}
}

// WithPasswordPolicy sets the complexity requirements enforced on new
// passwords
func WithPasswordPolicy(policy PasswordPolicy) LoginServiceOption {
	return func(s *LoginService) {
		s.policy = policy
	}
}

// WithClock overrides the time source. Test helper.
func WithClock(nowFn func() time.Time) LoginServiceOption {
	return func(s *LoginService) {
		s.nowFn = nowFn
	}
}

// NewLoginService creates a new LoginService
func NewLoginService(repo UserRepository, opts ...LoginServiceOption) *LoginService {
	s := &LoginService{
		repo:              repo,
		hasher:            NewBcryptHasher(),
		policy:            NoOpPasswordPolicy(),
		maxFailedAttempts: 5,
		lockoutDuration:   15 * time.Minute,
		nowFn:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find resolves a user by username.
func (s *LoginService) Find(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// Verify checks a username/password pair. On success the lockout counters are
// reset and the user is returned. Failures update the counters and return
// ErrUserNotFound, ErrInvalidCredential, ErrAccountLocked or
// ErrAccountDisabled.
func (s *LoginService) Verify(ctx context.Context, username, password string) (User, error) {
	now := s.nowFn()

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return User{}, fmt.Errorf("failed to find user %s: %w", username, err)
	}

	if user.Locked(now) {
		slog.Warn("Login attempt on locked account", "username", username, "locked_until", user.LockedUntil)
		return User{}, ErrAccountLocked
	}

	if !user.Enabled {
		return User{}, ErrAccountDisabled
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return User{}, fmt.Errorf("error checking password: %w", err)
	}
	if !valid {
		if err := s.registerFailure(ctx, &user, now); err != nil {
			slog.Error("Failed to update lockout counters", "username", username, "err", err)
		}
		if user.Locked(now) {
			return User{}, ErrAccountLocked
		}
		return User{}, ErrInvalidCredential
	}

	// Successful verification clears any failure history.
	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		if err := s.repo.UpdateLockout(ctx, user.ID, 0, nil, nil); err != nil {
			slog.Error("Failed to reset lockout counters", "username", username, "err", err)
		}
		user.FailedAttempts = 0
		user.LastFailedAt = nil
		user.LockedUntil = nil
	}

	return user, nil
}

// registerFailure increments the failed-attempt counter and locks the account
// when the threshold is reached. Mutates user to reflect the new state.
func (s *LoginService) registerFailure(ctx context.Context, user *User, now time.Time) error {
	user.FailedAttempts++
	user.LastFailedAt = &now

	if s.maxFailedAttempts > 0 && user.FailedAttempts >= s.maxFailedAttempts {
		lockedUntil := now.Add(s.lockoutDuration)
		user.LockedUntil = &lockedUntil
		slog.Warn("Account locked after repeated failures",
			"username", user.Username,
			"failed_attempts", user.FailedAttempts,
			"locked_until", lockedUntil)
	}

	return s.repo.UpdateLockout(ctx, user.ID, user.FailedAttempts, user.LastFailedAt, user.LockedUntil)
}

// RecordAttempt stores a login attempt audit row. Failures are logged, never
// surfaced: auditing must not break the login path.
func (s *LoginService) RecordAttempt(ctx context.Context, attempt LoginAttempt) {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.nowFn()
	}
	if err := s.repo.RecordAttempt(ctx, attempt); err != nil {
		slog.Error("Failed to record login attempt", "username", attempt.Username, "err", err)
	}
}

// ListAttempts returns the most recent audit rows for a username.
func (s *LoginService) ListAttempts(ctx context.Context, username string, limit int) ([]LoginAttempt, error) {
	return s.repo.ListAttempts(ctx, username, limit)
}

// ChangePassword verifies the current password, checks the new one against
// the password policy and stores its hash.
func (s *LoginService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.policy.Check(newPassword); err != nil {
		return err
	}

	valid, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("error checking password: %w", err)
	}
	if !valid {
		return ErrInvalidCredential
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("Password changed", "username", user.Username)
	return nil
}

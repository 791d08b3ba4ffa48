package twofa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/notification"
)

const (
	totpIssuer = "ecs-auth"
	totpSkew   = 1
)

// TwoFaService issues and verifies one-time login codes. Codes are TOTP
// passcodes over a per-user secret; an accepted code is recorded as consumed
// so it can never verify twice, even inside its validity window.
type TwoFaService struct {
	repo                TwoFaRepository
	notificationManager *notification.NotificationManager

	codePeriod time.Duration

	// failure policy; maxFailedCodes == 0 disables the limit
	maxFailedCodes int
	lockWindow     time.Duration

	nowFn func() time.Time
}

// TwoFaServiceOption configures a TwoFaService
type TwoFaServiceOption func(*TwoFaService)

// WithCodePeriod sets the validity window of issued codes
func WithCodePeriod(d time.Duration) TwoFaServiceOption {
	return func(s *TwoFaService) {
		s.codePeriod = d
	}
}

// WithFailurePolicy sets how many wrong codes are tolerated before
// verification is blocked, and for how long. max of 0 disables the limit.
func WithFailurePolicy(max int, lockWindow time.Duration) TwoFaServiceOption {
	return func(s *TwoFaService) {
		s.maxFailedCodes = max
		s.lockWindow = lockWindow
	}
}

// WithClock overrides the time source. Test helper.
func WithClock(nowFn func() time.Time) TwoFaServiceOption {
	return func(s *TwoFaService) {
		s.nowFn = nowFn
	}
}

// NewTwoFaService creates a new TwoFaService
func NewTwoFaService(repo TwoFaRepository, notificationManager *notification.NotificationManager, opts ...TwoFaServiceOption) *TwoFaService {
	s := &TwoFaService{
		repo:                repo,
		notificationManager: notificationManager,
		codePeriod:          5 * time.Minute,
		maxFailedCodes:      5,
		lockWindow:          10 * time.Minute,
		nowFn:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Methods returns the delivery channels a code would be sent on for the user.
func (s *TwoFaService) Methods(user login.User) []string {
	switch user.PreferredMethod() {
	case login.MethodPhone:
		return []string{"sms"}
	case login.MethodBoth:
		return []string{"email", "sms"}
	default:
		return []string{"email"}
	}
}

// Dispatch generates a passcode for the user and sends it on the preferred
// channel(s). EMAIL is the fallback when the preference is unset or the phone
// number is missing. Returns ErrCodeDispatchFailed when no channel accepted
// the code.
func (s *TwoFaService) Dispatch(ctx context.Context, user login.User) error {
	secret, err := s.secretFor(ctx, user)
	if err != nil {
		return err
	}

	code, err := totp.GenerateCodeCustom(secret, s.nowFn().UTC(), s.validateOpts())
	if err != nil {
		return fmt.Errorf("failed to generate passcode: %w", err)
	}

	data := map[string]string{
		"TwofaPasscode": code,
		"ExpiresIn":     s.codePeriod.String(),
	}

	method := user.PreferredMethod()
	if method != login.MethodEmail && user.Phone == "" {
		slog.Warn("No phone number on file, falling back to email", "username", user.Username)
		method = login.MethodEmail
	}

	var sent bool
	var lastErr error
	if method == login.MethodEmail || method == login.MethodBoth {
		err := s.notificationManager.Send(notification.TwofaCodeNoticeEmail, notification.EmailSystem, notification.NotificationData{
			To:   user.Email,
			Data: data,
		})
		if err != nil {
			slog.Error("Failed to send code email", "username", user.Username, "err", err)
			lastErr = err
		} else {
			sent = true
		}
	}
	if method == login.MethodPhone || method == login.MethodBoth {
		err := s.notificationManager.Send(notification.TwofaCodeNoticeSms, notification.SMSSystem, notification.NotificationData{
			To:   user.Phone,
			Data: data,
		})
		if err != nil {
			slog.Error("Failed to send code sms", "username", user.Username, "err", err)
			lastErr = err
		} else {
			sent = true
		}
	}

	if !sent {
		return fmt.Errorf("%w: %v", ErrCodeDispatchFailed, lastErr)
	}

	slog.Info("One-time code dispatched", "username", user.Username, "method", method)
	return nil
}

// Verify checks a submitted code and consumes it on success. Malformed codes
// are rejected before any store access. Wrong, expired, or reused codes
// return ErrInvalidCode; repeated failures return ErrTooManyAttempts for the
// lock window.
func (s *TwoFaService) Verify(ctx context.Context, user login.User, code string) error {
	if !wellFormedCode(code) {
		return ErrInvalidCode
	}

	now := s.nowFn()

	if err := s.checkFailureLock(ctx, user, now); err != nil {
		return err
	}

	secret, err := s.repo.GetSecret(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNoSecret) {
			// No code was ever dispatched for this user.
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to load secret: %w", err)
	}

	valid, err := totp.ValidateCustom(code, secret, now.UTC(), s.validateOpts())
	if err != nil {
		return fmt.Errorf("failed to validate passcode: %w", err)
	}
	if !valid {
		return s.registerFailure(ctx, user, now)
	}

	// Window-valid codes are single use.
	expiresAt := now.Add(s.codePeriod * (totpSkew + 1))
	fresh, err := s.repo.ConsumeCode(ctx, user.ID, code, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	if !fresh {
		slog.Warn("Replayed one-time code rejected", "username", user.Username)
		return s.registerFailure(ctx, user, now)
	}

	if err := s.repo.ResetFailures(ctx, user.ID); err != nil {
		slog.Error("Failed to reset code failure counter", "username", user.Username, "err", err)
	}
	return nil
}

// PurgeConsumed drops consumed-code records whose window has long passed.
func (s *TwoFaService) PurgeConsumed(ctx context.Context) (int, error) {
	return s.repo.PurgeConsumed(ctx, s.nowFn())
}

func (s *TwoFaService) secretFor(ctx context.Context, user login.User) (string, error) {
	secret, err := s.repo.GetSecret(ctx, user.ID)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, ErrNoSecret) {
		return "", fmt.Errorf("failed to load secret: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Username,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	if err := s.repo.SaveSecret(ctx, user.ID, key.Secret()); err != nil {
		return "", fmt.Errorf("failed to save secret: %w", err)
	}
	slog.Info("Generated new two-factor secret", "username", user.Username)
	return key.Secret(), nil
}

func (s *TwoFaService) checkFailureLock(ctx context.Context, user login.User, now time.Time) error {
	if s.maxFailedCodes == 0 {
		return nil
	}
	count, lastAt, err := s.repo.GetFailures(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load failure counter: %w", err)
	}
	if count < s.maxFailedCodes {
		return nil
	}
	if now.Before(lastAt.Add(s.lockWindow)) {
		return ErrTooManyAttempts
	}
	// Lock window passed, start over.
	if err := s.repo.ResetFailures(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to reset failure counter: %w", err)
	}
	return nil
}

func (s *TwoFaService) registerFailure(ctx context.Context, user login.User, now time.Time) error {
	count, err := s.repo.RecordFailure(ctx, user.ID, now)
	if err != nil {
		slog.Error("Failed to record code failure", "username", user.Username, "err", err)
		return ErrInvalidCode
	}
	if s.maxFailedCodes > 0 && count >= s.maxFailedCodes {
		slog.Warn("Code verification blocked after repeated failures",
			"username", user.Username, "failures", count)
		return ErrTooManyAttempts
	}
	return ErrInvalidCode
}

func (s *TwoFaService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.codePeriod / time.Second),
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// wellFormedCode reports whether the input is exactly six ASCII digits.
func wellFormedCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

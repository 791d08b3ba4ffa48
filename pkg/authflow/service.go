package authflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clavionx/ecs-auth/pkg/device"
	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/rbac"
	"github.com/clavionx/ecs-auth/pkg/twofa"
)

// AuthFlowService drives login attempts through their states: unauthenticated,
// pending a one-time code, fully authenticated. A valid trusted device
// short-circuits the code exchange. Attempt state itself is never persisted;
// callers persist the consequence (a session).
type AuthFlowService struct {
	services *ServiceDependencies
	executor *FlowExecutor
}

// NewAuthFlowService creates the service with the standard step pipeline:
// credential check, device recognition, two-factor gate, principal.
func NewAuthFlowService(loginService *login.LoginService, twoFaService *twofa.TwoFaService, deviceService *device.DeviceService) *AuthFlowService {
	services := &ServiceDependencies{
		Login:   loginService,
		TwoFa:   twoFaService,
		Devices: deviceService,
	}

	registry := NewStepRegistry().
		AddStep(NewCredentialCheckStep()).
		AddStep(NewDeviceRecognitionStep()).
		AddStep(NewTwoFactorGateStep()).
		AddStep(NewPrincipalStep())

	return &AuthFlowService{
		services: services,
		executor: NewFlowExecutor(registry, services),
	}
}

// BeginLogin verifies credentials and either completes authentication or
// parks the attempt behind the two-factor gate. Credential failures surface
// as ErrUserNotFound, ErrInvalidCredential, ErrAccountLocked or
// ErrAccountDisabled; a failed code dispatch as ErrCodeDispatchFailed.
func (s *AuthFlowService) BeginLogin(ctx context.Context, request Request) (Result, error) {
	return s.executor.Execute(ctx, request)
}

// CompleteTwoFactor finishes a pending attempt by verifying the one-time
// code. The user is resolved again, so an account deleted or disabled
// mid-flow fails here. On success with rememberDevice set, the client's
// device is trusted for the configured duration.
func (s *AuthFlowService) CompleteTwoFactor(ctx context.Context, username, code string, rememberDevice bool, meta Request) (AuthenticatedPrincipal, error) {
	user, err := s.services.Login.Find(ctx, username)
	if err != nil {
		return AuthenticatedPrincipal{}, fmt.Errorf("failed to resolve user %s: %w", username, err)
	}
	if !user.Enabled {
		return AuthenticatedPrincipal{}, ErrAccountDisabled
	}

	meta.Username = username
	if err := s.services.TwoFa.Verify(ctx, user, code); err != nil {
		recordAttempt(ctx, s.services, meta, false, failureReason(err))
		return AuthenticatedPrincipal{}, err
	}

	recordAttempt(ctx, s.services, meta, true, "")

	if rememberDevice && meta.DeviceFingerprint != "" {
		_, err := s.services.Devices.Trust(ctx, user.ID, meta.DeviceFingerprint, device.TrustedDevice{
			UserAgent: meta.UserAgent,
			IPAddress: meta.IPAddress,
		})
		if err != nil {
			// Trust is best-effort; the user is authenticated either way.
			slog.Error("Failed to trust device", "username", username, "err", err)
		}
	}

	return AuthenticatedPrincipal{
		User:        user,
		Authorities: rbac.Authorities(user.Role),
	}, nil
}

// ChangePassword updates the user's password and revokes every trusted
// device, forcing the two-factor gate on the next login from any client.
func (s *AuthFlowService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if err := s.services.Login.ChangePassword(ctx, userID, currentPassword, newPassword); err != nil {
		return err
	}
	if err := s.services.Devices.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke trusted devices: %w", err)
	}
	return nil
}

package authflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/rbac"
)

// Audit failure reasons recorded with login attempts.
const (
	reasonInvalidCredentials = "invalid_credentials"
	reasonUserNotFound       = "user_not_found"
	reasonAccountLocked      = "account_locked"
	reasonAccountDisabled    = "account_disabled"
	reasonInvalidCode        = "invalid_code"
	reasonTooManyCodes       = "too_many_code_attempts"
)

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return reasonUserNotFound
	case errors.Is(err, ErrAccountLocked):
		return reasonAccountLocked
	case errors.Is(err, ErrAccountDisabled):
		return reasonAccountDisabled
	case errors.Is(err, ErrTooManyAttempts):
		return reasonTooManyCodes
	case errors.Is(err, ErrInvalidCode):
		return reasonInvalidCode
	default:
		return reasonInvalidCredentials
	}
}

func recordAttempt(ctx context.Context, services *ServiceDependencies, request Request, success bool, reason string) {
	services.Login.RecordAttempt(ctx, login.LoginAttempt{
		Username:          request.Username,
		IPAddress:         request.IPAddress,
		UserAgent:         request.UserAgent,
		DeviceFingerprint: request.DeviceFingerprint,
		Success:           success,
		FailureReason:     reason,
	})
}

// CredentialCheckStep verifies the username/password pair
type CredentialCheckStep struct{}

func NewCredentialCheckStep() *CredentialCheckStep {
	return &CredentialCheckStep{}
}

func (s *CredentialCheckStep) Name() string {
	return "credential_check"
}

func (s *CredentialCheckStep) Order() int {
	return OrderCredentialCheck
}

func (s *CredentialCheckStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return false // Always verify credentials
}

func (s *CredentialCheckStep) Execute(ctx context.Context, flowContext *FlowContext) (StepResult, error) {
	user, err := flowContext.Services.Login.Verify(ctx, flowContext.Request.Username, flowContext.Request.Password)
	if err != nil {
		slog.Info("Credential check failed", "username", flowContext.Request.Username, "err", err)
		recordAttempt(ctx, flowContext.Services, flowContext.Request, false, failureReason(err))
		return StepResult{}, err
	}

	flowContext.User = user
	return StepResult{Continue: true}, nil
}

// DeviceRecognitionStep checks whether the client's device is trusted, which
// lets the flow skip the two-factor gate.
type DeviceRecognitionStep struct{}

func NewDeviceRecognitionStep() *DeviceRecognitionStep {
	return &DeviceRecognitionStep{}
}

func (s *DeviceRecognitionStep) Name() string {
	return "device_recognition"
}

func (s *DeviceRecognitionStep) Order() int {
	return OrderDeviceRecognition
}

func (s *DeviceRecognitionStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	// Nothing to recognize without a fingerprint; nothing to bypass without 2FA.
	return flowContext.Request.DeviceFingerprint == "" || !flowContext.User.TwoFactorEnabled
}

func (s *DeviceRecognitionStep) Execute(ctx context.Context, flowContext *FlowContext) (StepResult, error) {
	_, err := flowContext.Services.Devices.FindValid(ctx, flowContext.User.ID, flowContext.Request.DeviceFingerprint)
	if err != nil {
		flowContext.DeviceRecognized = false
		return StepResult{Continue: true}, nil
	}

	slog.Info("Device recognized, skipping two-factor verification",
		"username", flowContext.User.Username,
		"fingerprint", flowContext.Request.DeviceFingerprint)
	flowContext.DeviceRecognized = true
	return StepResult{Continue: true}, nil
}

// TwoFactorGateStep dispatches a one-time code and parks the attempt
type TwoFactorGateStep struct{}

func NewTwoFactorGateStep() *TwoFactorGateStep {
	return &TwoFactorGateStep{}
}

func (s *TwoFactorGateStep) Name() string {
	return "two_factor_gate"
}

func (s *TwoFactorGateStep) Order() int {
	return OrderTwoFactorGate
}

func (s *TwoFactorGateStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return !flowContext.User.TwoFactorEnabled || flowContext.DeviceRecognized
}

func (s *TwoFactorGateStep) Execute(ctx context.Context, flowContext *FlowContext) (StepResult, error) {
	if err := flowContext.Services.TwoFa.Dispatch(ctx, flowContext.User); err != nil {
		slog.Error("Failed to dispatch one-time code", "username", flowContext.User.Username, "err", err)
		return StepResult{}, err
	}

	flowContext.Result.Pending = &PendingAttempt{
		Username: flowContext.User.Username,
		Methods:  flowContext.Services.TwoFa.Methods(flowContext.User),
	}
	return StepResult{EarlyReturn: true}, nil
}

// PrincipalStep finishes the flow with a fully authenticated principal
type PrincipalStep struct{}

func NewPrincipalStep() *PrincipalStep {
	return &PrincipalStep{}
}

func (s *PrincipalStep) Name() string {
	return "principal"
}

func (s *PrincipalStep) Order() int {
	return OrderPrincipal
}

func (s *PrincipalStep) ShouldSkip(ctx context.Context, flowContext *FlowContext) bool {
	return false
}

func (s *PrincipalStep) Execute(ctx context.Context, flowContext *FlowContext) (StepResult, error) {
	recordAttempt(ctx, flowContext.Services, flowContext.Request, true, "")

	flowContext.Result.Principal = &AuthenticatedPrincipal{
		User:        flowContext.User,
		Authorities: rbac.Authorities(flowContext.User.Role),
	}
	return StepResult{Continue: true}, nil
}

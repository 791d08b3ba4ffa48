package authflow

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clavionx/ecs-auth/pkg/device"
	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/notification"
	"github.com/clavionx/ecs-auth/pkg/rbac"
	"github.com/clavionx/ecs-auth/pkg/twofa"
)

const testCodePeriod = 5 * time.Minute

type flowFixture struct {
	users     *login.InMemUserRepository
	codes     *twofa.InMemTwoFaRepository
	loginSvc  *login.LoginService
	twofaSvc  *twofa.TwoFaService
	deviceSvc *device.DeviceService
	email     *notification.MockNotifier
	sms       *notification.MockNotifier
	svc       *AuthFlowService
	now       time.Time
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	f := &flowFixture{
		users: login.NewInMemUserRepository(),
		codes: twofa.NewInMemTwoFaRepository(),
		email: &notification.MockNotifier{},
		sms:   &notification.MockNotifier{},
		now:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	nm, err := notification.NewNotificationManagerWithOptions(notification.WithDefaultTemplates())
	require.NoError(t, err)
	nm.RegisterNotifier(notification.EmailSystem, f.email)
	nm.RegisterNotifier(notification.SMSSystem, f.sms)

	nowFn := func() time.Time { return f.now }
	f.loginSvc = login.NewLoginService(f.users, login.WithClock(nowFn))
	f.twofaSvc = twofa.NewTwoFaService(f.codes, nm, twofa.WithCodePeriod(testCodePeriod), twofa.WithClock(nowFn))
	f.deviceSvc = device.NewDeviceService(device.NewInMemTrustedDeviceRepository(), device.WithClock(nowFn))
	f.svc = NewAuthFlowService(f.loginSvc, f.twofaSvc, f.deviceSvc)
	return f
}

func (f *flowFixture) seedUser(t *testing.T, username, password string, mutate func(*login.User)) login.User {
	t.Helper()

	hash, err := login.NewBcryptHasher().Hash(password)
	require.NoError(t, err)

	user := login.User{
		Username:     username,
		PasswordHash: hash,
		Role:         rbac.RoleStudent,
		Enabled:      true,
		Email:        username + "@example.com",
	}
	if mutate != nil {
		mutate(&user)
	}
	require.NoError(t, f.users.Create(context.Background(), user))

	created, err := f.users.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return created
}

// passcodeFor regenerates the code a dispatch would have produced.
func (f *flowFixture) passcodeFor(t *testing.T, user login.User) string {
	t.Helper()

	secret, err := f.codes.GetSecret(context.Background(), user.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCodeCustom(secret, f.now.UTC(), totp.ValidateOpts{
		Period:    uint(testCodePeriod / time.Second),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestBeginLoginWithoutTwoFactor(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.seedUser(t, "alice", "s3cret", nil)

	result, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.False(t, result.TwoFactorRequired())
	require.NotNil(t, result.Principal)
	assert.Equal(t, "alice", result.Principal.User.Username)
	assert.Contains(t, result.Principal.Authorities, "ROLE_STUDENT")
	assert.Empty(t, f.email.SentNotifications, "no code is sent when 2FA is off")

	attempts, err := f.loginSvc.ListAttempts(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Success)
}

func TestBeginLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.seedUser(t, "alice", "s3cret", nil)

	_, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	attempts, err := f.loginSvc.ListAttempts(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Success)
	assert.Equal(t, "invalid_credentials", attempts[0].FailureReason)
}

func TestBeginLoginUnknownUser(t *testing.T) {
	f := newFlowFixture(t)

	_, err := f.svc.BeginLogin(context.Background(), Request{Username: "ghost", Password: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBeginLoginDisabledAccount(t *testing.T) {
	f := newFlowFixture(t)
	f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.Enabled = false })

	_, err := f.svc.BeginLogin(context.Background(), Request{Username: "alice", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestBeginLoginTwoFactorPending(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.TwoFactorEnabled = true })

	result, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.True(t, result.TwoFactorRequired())
	assert.Nil(t, result.Principal)
	require.NotNil(t, result.Pending)
	assert.Equal(t, "alice", result.Pending.Username)
	assert.Equal(t, []string{"email"}, result.Pending.Methods)
	assert.Len(t, f.email.SentNotifications, 1)
}

func TestBeginLoginDispatchFailure(t *testing.T) {
	f := newFlowFixture(t)
	f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.TwoFactorEnabled = true })
	f.email.Err = assert.AnError

	result, err := f.svc.BeginLogin(context.Background(), Request{Username: "alice", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrCodeDispatchFailed)
	assert.Nil(t, result.Principal)
	assert.Nil(t, result.Pending)
}

func TestCompleteTwoFactor(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	user := f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.TwoFactorEnabled = true })

	_, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "s3cret", DeviceFingerprint: "fp-1"})
	require.NoError(t, err)

	principal, err := f.svc.CompleteTwoFactor(ctx, "alice", f.passcodeFor(t, user), false, Request{DeviceFingerprint: "fp-1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.User.Username)
	assert.Contains(t, principal.Authorities, "ROLE_STUDENT")

	// Device was not remembered.
	_, err = f.deviceSvc.FindValid(ctx, user.ID, "fp-1")
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)
}

func TestCompleteTwoFactorRemembersDevice(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	user := f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.TwoFactorEnabled = true })

	_, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "s3cret", DeviceFingerprint: "fp-1"})
	require.NoError(t, err)

	_, err = f.svc.CompleteTwoFactor(ctx, "alice", f.passcodeFor(t, user), true, Request{DeviceFingerprint: "fp-1", UserAgent: "Mozilla/5.0"})
	require.NoError(t, err)

	trusted, err := f.deviceSvc.FindValid(ctx, user.ID, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "Mozilla/5.0", trusted.UserAgent)

	// The next login from this device skips the code exchange entirely.
	f.email.SentNotifications = nil
	result, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "s3cret", DeviceFingerprint: "fp-1"})
	require.NoError(t, err)
	assert.False(t, result.TwoFactorRequired())
	require.NotNil(t, result.Principal)
	assert.Empty(t, f.email.SentNotifications)
}

func TestTrustedDeviceExpiryReinstatesGate(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	user := f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.TwoFactorEnabled = true })

	_, err := f.deviceSvc.Trust(ctx, user.ID, "fp-1", device.TrustedDevice{})
	require.NoError(t, err)

	f.now = f.now.Add(91 * 24 * time.Hour)

	result, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "s3cret", DeviceFingerprint: "fp-1"})
	require.NoError(t, err)
	assert.True(t, result.TwoFactorRequired())
}

func TestCompleteTwoFactorMalformedCode(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.TwoFactorEnabled = true })

	_, err := f.svc.CompleteTwoFactor(ctx, "alice", "12ab56", false, Request{})
	assert.ErrorIs(t, err, ErrInvalidCode)

	attempts, err := f.loginSvc.ListAttempts(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "invalid_code", attempts[0].FailureReason)
}

func TestCompleteTwoFactorReplayRejected(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	user := f.seedUser(t, "alice", "s3cret", func(u *login.User) { u.TwoFactorEnabled = true })

	_, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	code := f.passcodeFor(t, user)
	_, err = f.svc.CompleteTwoFactor(ctx, "alice", code, false, Request{})
	require.NoError(t, err)

	_, err = f.svc.CompleteTwoFactor(ctx, "alice", code, false, Request{})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCompleteTwoFactorUserGoneMidFlow(t *testing.T) {
	f := newFlowFixture(t)

	_, err := f.svc.CompleteTwoFactor(context.Background(), "ghost", "123456", false, Request{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePasswordRevokesTrustedDevices(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	user := f.seedUser(t, "alice", "Old-Passw0rd", func(u *login.User) { u.TwoFactorEnabled = true })

	_, err := f.deviceSvc.Trust(ctx, user.ID, "fp-1", device.TrustedDevice{})
	require.NoError(t, err)

	require.NoError(t, f.svc.ChangePassword(ctx, user.ID, "Old-Passw0rd", "New-Passw0rd"))

	_, err = f.deviceSvc.FindValid(ctx, user.ID, "fp-1")
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)

	// The next login goes back through the two-factor gate.
	result, err := f.svc.BeginLogin(ctx, Request{Username: "alice", Password: "New-Passw0rd", DeviceFingerprint: "fp-1"})
	require.NoError(t, err)
	assert.True(t, result.TwoFactorRequired())
}

func TestChangePasswordWrongCurrentKeepsDevices(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)
	user := f.seedUser(t, "alice", "Old-Passw0rd", nil)

	_, err := f.deviceSvc.Trust(ctx, user.ID, "fp-1", device.TrustedDevice{})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, user.ID, "wrong", "New-Passw0rd")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = f.deviceSvc.FindValid(ctx, user.ID, "fp-1")
	assert.NoError(t, err, "devices stay trusted when the change is rejected")
}

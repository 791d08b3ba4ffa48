package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clavionx/ecs-auth/pkg/login"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, opts ...SessionServiceOption) (*SessionService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	opts = append([]SessionServiceOption{WithClock(clock.Now)}, opts...)
	return NewSessionService(NewInMemSessionRepository(), opts...), clock
}

func testUser(username string) login.User {
	return login.User{
		ID:       uuid.New(),
		Username: username,
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t)
	user := testUser("alice")

	created, err := service.Create(ctx, user, Meta{
		IPAddress:         "10.0.0.1",
		UserAgent:         "Mozilla/5.0",
		DeviceFingerprint: "fp-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, clock.Now(), created.LoginTime)
	assert.Equal(t, clock.Now(), created.LastActivity)

	got, err := service.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
	assert.Nil(t, got.LogoutTime)

	active, err := service.IsActive(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestGetSessionNotFound(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, err := service.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	active, err := service.IsActive(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCreateEvictsOldest(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t, WithMaxSessionsPerUser(2))
	user := testUser("bob")

	first, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	third, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	active, err := service.ListActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, third.ID, active[1].ID)

	evicted, err := service.GetSession(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, evicted.Active)
	require.NotNil(t, evicted.LogoutTime)
}

func TestSingleSessionMode(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t, WithSingleSession())
	user := testUser("carol")

	first, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	active, err := service.ListActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	old, err := service.GetSession(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)
}

func TestEvictionIsPerUser(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, WithSingleSession())
	alice := testUser("alice")
	bob := testUser("bob")

	aliceSession, err := service.Create(ctx, alice, Meta{})
	require.NoError(t, err)
	_, err = service.Create(ctx, bob, Meta{})
	require.NoError(t, err)

	got, err := service.GetSession(ctx, aliceSession.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestTouchUpdatesActivity(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t)
	user := testUser("dave")

	created, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	require.NoError(t, service.Touch(ctx, created.ID))

	got, err := service.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), got.LastActivity)
	assert.Equal(t, created.LoginTime, got.LoginTime)
}

func TestTouchAfterTerminateIsNoOp(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t)
	user := testUser("erin")

	created, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.NoError(t, service.Terminate(ctx, created.ID))
	terminatedAt := clock.Now()

	clock.Advance(time.Minute)
	require.NoError(t, service.Touch(ctx, created.ID))

	got, err := service.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active, "touch must not reactivate a terminated session")
	assert.Equal(t, created.LastActivity, got.LastActivity, "touch must not move activity on a dead session")
	require.NotNil(t, got.LogoutTime)
	assert.Equal(t, terminatedAt, *got.LogoutTime)
}

func TestTouchMissingSessionIsNoOp(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	assert.NoError(t, service.Touch(ctx, "missing"))
}

func TestTerminateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t)
	user := testUser("frank")

	created, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.NoError(t, service.Terminate(ctx, created.ID))
	first, err := service.GetSession(ctx, created.ID)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, service.Terminate(ctx, created.ID))
	require.NoError(t, service.Terminate(ctx, "missing"))

	second, err := service.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first.LogoutTime, second.LogoutTime, "repeat terminate must not move logout time")
}

func TestTerminateAllForUserKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t)
	user := testUser("grace")
	other := testUser("heidi")

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := service.Create(ctx, user, Meta{})
		require.NoError(t, err)
		ids = append(ids, s.ID)
		clock.Advance(time.Minute)
	}
	otherSession, err := service.Create(ctx, other, Meta{})
	require.NoError(t, err)

	count, err := service.TerminateAllForUser(ctx, user.ID, ids[2])
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	active, err := service.ListActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ids[2], active[0].ID)

	got, err := service.GetSession(ctx, otherSession.ID)
	require.NoError(t, err)
	assert.True(t, got.Active, "other users are untouched")
}

func TestCleanupStaleTerminatesIdleSessions(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t, WithInactivityTimeout(30*time.Minute))
	user := testUser("ivan")

	idle, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	fresh, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	clock.Advance(15 * time.Minute) // idle at 35m, fresh at 15m

	count, err := service.CleanupStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	gotIdle, err := service.GetSession(ctx, idle.ID)
	require.NoError(t, err)
	assert.False(t, gotIdle.Active)
	require.NotNil(t, gotIdle.LogoutTime)
	assert.Equal(t, clock.Now(), *gotIdle.LogoutTime)

	gotFresh, err := service.GetSession(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, gotFresh.Active)
}

func TestCleanupStaleSparesJustTouchedSession(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t, WithInactivityTimeout(30*time.Minute))
	user := testUser("judy")

	created, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	// Session goes idle past the timeout, then a request lands right before
	// the sweep. The write-time re-check must keep it alive.
	clock.Advance(45 * time.Minute)
	require.NoError(t, service.Touch(ctx, created.ID))

	count, err := service.CleanupStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	got, err := service.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestPurgeInactiveHonorsRetention(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t, WithRetentionPeriod(24*time.Hour))
	user := testUser("karl")

	old, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)
	require.NoError(t, service.Terminate(ctx, old.ID))

	clock.Advance(12 * time.Hour)
	recent, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)
	require.NoError(t, service.Terminate(ctx, recent.ID))
	live, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	clock.Advance(13 * time.Hour) // old dead for 25h, recent for 13h

	count, err := service.PurgeInactive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = service.GetSession(ctx, old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = service.GetSession(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = service.GetSession(ctx, live.ID)
	assert.NoError(t, err)
}

func TestListAllForUserIncludesTerminated(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t)
	user := testUser("mallory")

	first, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	require.NoError(t, service.Terminate(ctx, first.ID))
	second, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)

	all, err := service.ListAllForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[1].ID)

	active, err := service.ListActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestCleanerRunOnce(t *testing.T) {
	ctx := context.Background()
	service, clock := newTestService(t, WithInactivityTimeout(30*time.Minute))
	user := testUser("nina")

	_, err := service.Create(ctx, user, Meta{})
	require.NoError(t, err)
	clock.Advance(time.Hour)

	extraRan := 0
	cleaner := NewCleaner(service, WithExtraTask("devices", func(ctx context.Context) (int, error) {
		extraRan++
		return 0, nil
	}))
	cleaner.RunOnce(ctx)

	assert.Equal(t, 1, extraRan)
	active, err := service.ListActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

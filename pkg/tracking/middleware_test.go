package tracking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clavionx/ecs-auth/pkg/config"
	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/rbac"
	"github.com/clavionx/ecs-auth/pkg/session"
)

const testCookie = "ecs_session"

type trackerFixture struct {
	sessions *session.SessionService
	tracker  *Tracker
	now      time.Time
}

func newTrackerFixture(t *testing.T, cfg config.TrackingConfig, repo session.SessionRepository) (*trackerFixture, login.User) {
	t.Helper()

	f := &trackerFixture{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	if repo == nil {
		repo = session.NewInMemSessionRepository()
	}
	f.sessions = session.NewSessionService(repo, session.WithClock(func() time.Time { return f.now }))

	users := login.NewInMemUserRepository()
	hash, err := login.NewBcryptHasher().Hash("s3cret")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), login.User{
		Username:     "alice",
		PasswordHash: hash,
		Role:         rbac.RoleTeacher,
		Enabled:      true,
	}))
	user, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)

	logins := login.NewLoginService(users)
	f.tracker = NewTracker(f.sessions, logins, testCookie, cfg)
	return f, user
}

func requestWithSession(sessionID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/courses", nil)
	if sessionID != "" {
		r.AddCookie(&http.Cookie{Name: testCookie, Value: sessionID})
	}
	return r
}

func capturePrincipal(got **Principal, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromRequest(r)
		*found = ok
		if ok {
			*got = &p
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuthResolvesPrincipal(t *testing.T) {
	f, user := newTrackerFixture(t, config.DefaultTrackingConfig(), nil)
	sess, err := f.sessions.Create(context.Background(), user, session.Meta{})
	require.NoError(t, err)

	var principal *Principal
	var found bool
	handler := f.tracker.SessionAuth(capturePrincipal(&principal, &found))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession(sess.ID))

	require.True(t, found)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, rbac.RoleTeacher, principal.Role)
	assert.Equal(t, sess.ID, principal.SessionID)
	assert.Equal(t, user.ID, principal.UserID)
}

func TestSessionAuthAnonymousPassesThrough(t *testing.T) {
	f, _ := newTrackerFixture(t, config.DefaultTrackingConfig(), nil)

	var principal *Principal
	var found bool
	handler := f.tracker.SessionAuth(capturePrincipal(&principal, &found))

	for _, sessionID := range []string{"", "bogus"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestWithSession(sessionID))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, found)
	}
}

func TestSessionAuthIgnoresTerminatedSession(t *testing.T) {
	f, user := newTrackerFixture(t, config.DefaultTrackingConfig(), nil)
	sess, err := f.sessions.Create(context.Background(), user, session.Meta{})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Terminate(context.Background(), sess.ID))

	var principal *Principal
	var found bool
	handler := f.tracker.SessionAuth(capturePrincipal(&principal, &found))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestWithSession(sess.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, found)
}

func TestActivityTrackerTouchesSession(t *testing.T) {
	f, user := newTrackerFixture(t, config.DefaultTrackingConfig(), nil)
	sess, err := f.sessions.Create(context.Background(), user, session.Meta{})
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)

	chain := f.tracker.SessionAuth(f.tracker.ActivityTracker(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	w := httptest.NewRecorder()
	chain.ServeHTTP(w, requestWithSession(sess.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := f.sessions.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, f.now, got.LastActivity)
}

type touchFailingRepo struct {
	session.SessionRepository
}

func (r *touchFailingRepo) Touch(ctx context.Context, id string, now time.Time) (bool, error) {
	return false, errors.New("store down")
}

func TestActivityTrackerLenientSwallowsErrors(t *testing.T) {
	repo := &touchFailingRepo{SessionRepository: session.NewInMemSessionRepository()}
	f, user := newTrackerFixture(t, config.DefaultTrackingConfig(), repo)
	sess, err := f.sessions.Create(context.Background(), user, session.Meta{})
	require.NoError(t, err)

	chain := f.tracker.SessionAuth(f.tracker.ActivityTracker(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	w := httptest.NewRecorder()
	chain.ServeHTTP(w, requestWithSession(sess.ID))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActivityTrackerStrictFailsRequest(t *testing.T) {
	repo := &touchFailingRepo{SessionRepository: session.NewInMemSessionRepository()}
	cfg := config.DefaultTrackingConfig()
	cfg.Strict = true
	f, user := newTrackerFixture(t, cfg, repo)
	sess, err := f.sessions.Create(context.Background(), user, session.Meta{})
	require.NoError(t, err)

	chain := f.tracker.SessionAuth(f.tracker.ActivityTracker(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when strict tracking fails")
	})))

	w := httptest.NewRecorder()
	chain.ServeHTTP(w, requestWithSession(sess.ID))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithPrincipal(r.Context(), Principal{Username: "alice", Role: rbac.RoleStudent}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("ADMIN", "MANAGER")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		role rbac.Role
		want int
	}{
		{rbac.RoleAdmin, http.StatusOK},
		{rbac.RoleManager, http.StatusOK},
		{rbac.RoleStudent, http.StatusForbidden},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithPrincipal(r.Context(), Principal{Username: "u", Role: tc.role}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, tc.want, w.Code, "role %s", tc.role.Name())
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(string(rbac.PermStudentManageAll))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithPrincipal(r.Context(), Principal{Role: rbac.RoleAdmin}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithPrincipal(r.Context(), Principal{Role: rbac.RoleGuest}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdministrative(t *testing.T) {
	handler := RequireAdministrative()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		role rbac.Role
		want int
	}{
		{rbac.RoleSuperAdmin, http.StatusOK},
		{rbac.RoleAdmin, http.StatusOK},
		{rbac.RoleTeacher, http.StatusForbidden},
		{rbac.RoleStudent, http.StatusForbidden},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithPrincipal(r.Context(), Principal{Role: tc.role}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, tc.want, w.Code, "role %s", tc.role.Name())
	}
}

func TestRequireDashboardExcludesGuests(t *testing.T) {
	handler := RequireDashboard()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithPrincipal(r.Context(), Principal{Role: rbac.RoleStudent}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithPrincipal(r.Context(), Principal{Role: rbac.RoleGuest}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

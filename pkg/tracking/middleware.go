package tracking

import (
	"log/slog"
	"net/http"

	"github.com/clavionx/ecs-auth/pkg/config"
	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/rbac"
	"github.com/clavionx/ecs-auth/pkg/session"
)

// Tracker wires the session cookie to the request context and keeps session
// activity fresh. SessionAuth must run before ActivityTracker and before any
// of the Require* middlewares.
type Tracker struct {
	sessions   *session.SessionService
	logins     *login.LoginService
	cookieName string
	cfg        config.TrackingConfig
}

// NewTracker creates a new Tracker
func NewTracker(sessions *session.SessionService, logins *login.LoginService, cookieName string, cfg config.TrackingConfig) *Tracker {
	return &Tracker{
		sessions:   sessions,
		logins:     logins,
		cookieName: cookieName,
		cfg:        cfg,
	}
}

// SessionAuth resolves the session cookie into a Principal on the request
// context. Requests without a valid session pass through anonymously.
func (t *Tracker) SessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(t.cookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := t.sessions.GetSession(r.Context(), cookie.Value)
		if err != nil || !sess.Active {
			next.ServeHTTP(w, r)
			return
		}

		user, err := t.logins.Find(r.Context(), sess.Username)
		if err != nil {
			slog.Warn("Session refers to unknown user", "session_id", sess.ID, "username", sess.Username)
			next.ServeHTTP(w, r)
			return
		}

		principal := Principal{
			UserID:    user.ID,
			Username:  user.Username,
			Role:      user.Role,
			SessionID: sess.ID,
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// ActivityTracker bumps the session's last-activity timestamp once per
// request. Failures are logged and swallowed unless Strict is set.
func (t *Tracker) ActivityTracker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromRequest(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if principal.Role == rbac.RoleGuest && !t.cfg.TrackAnonymous {
			next.ServeHTTP(w, r)
			return
		}

		if err := t.sessions.Touch(r.Context(), principal.SessionID); err != nil {
			if t.cfg.Strict {
				slog.Error("Activity tracking failed", "session_id", principal.SessionID, "err", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			slog.Warn("Activity tracking failed", "session_id", principal.SessionID, "err", err)
		}

		if t.cfg.LogActivity {
			slog.Debug("Request activity",
				"username", principal.Username,
				"method", r.Method,
				"path", r.URL.Path)
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth requires an authenticated principal.
// Returns 401 Unauthorized otherwise. Must be used after SessionAuth.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromRequest(r); !ok {
			slog.Debug("Unauthenticated request to protected resource", "path", r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns a middleware that admits principals holding any of the
// given roles. Returns 401 when unauthenticated, 403 when the role is
// missing. Must be used after SessionAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return requireAuthorities(roles)
}

// RequirePermission returns a middleware that admits principals whose role
// grants any of the given permissions. Must be used after SessionAuth.
func RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return requireAuthorities(permissions)
}

// RequireAdministrative admits only the system-administration roles.
func RequireAdministrative() func(http.Handler) http.Handler {
	return requireAuthorities(roleNames(rbac.AdministrativeRoles()))
}

// RequireDashboard admits every role with dashboard access.
func RequireDashboard() func(http.Handler) http.Handler {
	return requireAuthorities(roleNames(rbac.DashboardRoles()))
}

func roleNames(roles []rbac.Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name()
	}
	return names
}

func requireAuthorities(required []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromRequest(r)
			if !ok {
				slog.Debug("Unauthenticated request to protected resource", "required", required)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !rbac.Allows(principal.Role, required...) {
				slog.Warn("Principal lacks required authority",
					"username", principal.Username,
					"role", principal.Role.Name(),
					"required", required)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

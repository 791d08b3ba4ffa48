package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/clavionx/ecs-auth/pkg/session"
	"github.com/clavionx/ecs-auth/pkg/tracking"
)

// SessionHandler handles HTTP requests for session management. Routes must
// be mounted behind tracking.RequireAuth.
type SessionHandler struct {
	sessions *session.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.SessionService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// RegisterRoutes registers the session management routes
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListSessions)
	r.Post("/revoke", h.RevokeSession)
	r.Post("/revoke-all", h.RevokeAllSessions)
}

// SessionSummary is one row in the session list
type SessionSummary struct {
	SessionID    string     `json:"session_id"`
	LoginTime    time.Time  `json:"login_time"`
	LastActivity time.Time  `json:"last_activity"`
	LogoutTime   *time.Time `json:"logout_time,omitempty"`
	Active       bool       `json:"active"`
	IPAddress    string     `json:"ip_address,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	Current      bool       `json:"current"`
}

// ListSessionsResponse represents the response body for listing sessions
type ListSessionsResponse struct {
	Status   string           `json:"status"`
	Sessions []SessionSummary `json:"sessions"`
}

// RevokeSessionRequest represents the request body for revoking one session
type RevokeSessionRequest struct {
	SessionID string `json:"session_id"`
}

// ListSessions handles GET /sessions - the current user's active sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	principal, ok := tracking.PrincipalFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessions, err := h.sessions.ListActiveForUser(r.Context(), principal.UserID)
	if err != nil {
		slog.Error("Failed to list sessions", "user_id", principal.UserID, "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, SessionSummary{
			SessionID:    s.ID,
			LoginTime:    s.LoginTime,
			LastActivity: s.LastActivity,
			LogoutTime:   s.LogoutTime,
			Active:       s.Active,
			IPAddress:    s.IPAddress,
			UserAgent:    s.UserAgent,
			Current:      s.ID == principal.SessionID,
		})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ListSessionsResponse{
		Status:   "success",
		Sessions: summaries,
	})
}

// RevokeSession handles POST /sessions/revoke - revoke one of the current
// user's sessions
func (h *SessionHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	principal, ok := tracking.PrincipalFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RevokeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		renderError(w, r, http.StatusBadRequest, "session_id is required")
		return
	}

	sess, err := h.sessions.GetSession(r.Context(), req.SessionID)
	if err != nil {
		renderError(w, r, http.StatusNotFound, "Session not found")
		return
	}

	if sess.UserID != principal.UserID {
		slog.Warn("Attempted to revoke another user's session",
			"requester", principal.Username,
			"session_id", req.SessionID)
		renderError(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	if err := h.sessions.Terminate(r.Context(), req.SessionID); err != nil {
		slog.Error("Failed to revoke session", "session_id", req.SessionID, "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to revoke session")
		return
	}

	slog.Info("Session revoked", "session_id", req.SessionID, "username", principal.Username)
	renderSuccess(w, r, "Session revoked")
}

// RevokeAllSessions handles POST /sessions/revoke-all - end every other
// session of the current user
func (h *SessionHandler) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	principal, ok := tracking.PrincipalFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.sessions.TerminateAllForUser(r.Context(), principal.UserID, principal.SessionID)
	if err != nil {
		slog.Error("Failed to revoke sessions", "user_id", principal.UserID, "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to revoke sessions")
		return
	}

	slog.Info("Other sessions revoked", "username", principal.Username, "count", count)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]any{
		"status":        "success",
		"revoked_count": count,
	})
}

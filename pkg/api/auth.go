package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/clavionx/ecs-auth/pkg/authflow"
	"github.com/clavionx/ecs-auth/pkg/device"
	"github.com/clavionx/ecs-auth/pkg/session"
)

// AuthHandler handles login, two-factor verification and logout.
type AuthHandler struct {
	flow         *authflow.AuthFlowService
	sessions     *session.SessionService
	cookieName   string
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(flow *authflow.AuthFlowService, sessions *session.SessionService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		flow:         flow,
		sessions:     sessions,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes registers the authentication routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/2fa/verify", h.VerifyTwoFactor)
	r.Post("/logout", h.Logout)
}

// LoginRequest represents the request body for a login attempt
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a completed authentication
type LoginResponse struct {
	Status      string   `json:"status"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities"`
}

// TwoFactorRequiredResponse is returned when a one-time code is outstanding
type TwoFactorRequiredResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Methods []string `json:"methods"`
}

// VerifyTwoFactorRequest represents the request body for code verification
type VerifyTwoFactorRequest struct {
	Username       string `json:"username"`
	Code           string `json:"code"`
	RememberDevice bool   `json:"remember_device"`
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *AuthHandler) flowRequest(r *http.Request) authflow.Request {
	return authflow.Request{
		IPAddress:         clientIP(r),
		UserAgent:         r.UserAgent(),
		DeviceFingerprint: device.GetRequestFingerprint(r),
	}
}

// Login handles POST /auth/login. Responds 200 with a session cookie, or 202
// when a one-time code has been dispatched and must still be verified.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		renderError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	flowReq := h.flowRequest(r)
	flowReq.Username = req.Username
	flowReq.Password = req.Password

	result, err := h.flow.BeginLogin(r.Context(), flowReq)
	if err != nil {
		h.renderAuthError(w, r, err)
		return
	}

	if result.TwoFactorRequired() {
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, TwoFactorRequiredResponse{
			Status:  "two_factor_required",
			Message: "A verification code has been sent",
			Methods: result.Pending.Methods,
		})
		return
	}

	h.establishSession(w, r, *result.Principal, flowReq)
}

// VerifyTwoFactor handles POST /auth/2fa/verify
func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req VerifyTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Code == "" {
		renderError(w, r, http.StatusBadRequest, "username and code are required")
		return
	}

	meta := h.flowRequest(r)
	meta.Username = req.Username

	principal, err := h.flow.CompleteTwoFactor(r.Context(), req.Username, req.Code, req.RememberDevice, meta)
	if err != nil {
		h.renderAuthError(w, r, err)
		return
	}

	h.establishSession(w, r, principal, meta)
}

// Logout handles POST /auth/logout. Terminating an already dead session is
// fine; the cookie is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.Terminate(r.Context(), cookie.Value); err != nil {
			slog.Error("Failed to terminate session on logout", "err", err)
		}
	}

	h.setSessionCookie(w, "", -1)
	renderSuccess(w, r, "Logged out")
}

func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, principal authflow.AuthenticatedPrincipal, meta authflow.Request) {
	sess, err := h.sessions.Create(r.Context(), principal.User, session.Meta{
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		DeviceFingerprint: meta.DeviceFingerprint,
	})
	if err != nil {
		slog.Error("Failed to create session", "username", principal.User.Username, "err", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.setSessionCookie(w, sess.ID, 0)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{
		Status:      "success",
		Username:    principal.User.Username,
		Role:        principal.User.Role.Name(),
		Authorities: principal.Authorities,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) renderAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authflow.ErrUserNotFound), errors.Is(err, authflow.ErrInvalidCredential):
		// Do not reveal whether the account exists.
		renderError(w, r, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, authflow.ErrInvalidCode):
		renderError(w, r, http.StatusUnauthorized, "Invalid or expired verification code")
	case errors.Is(err, authflow.ErrAccountLocked):
		renderError(w, r, http.StatusLocked, "Account temporarily locked, try again later")
	case errors.Is(err, authflow.ErrAccountDisabled):
		renderError(w, r, http.StatusForbidden, "Account is disabled")
	case errors.Is(err, authflow.ErrTooManyAttempts):
		renderError(w, r, http.StatusTooManyRequests, "Too many verification attempts, try again later")
	case errors.Is(err, authflow.ErrCodeDispatchFailed):
		renderError(w, r, http.StatusBadGateway, "Failed to send verification code")
	default:
		slog.Error("Authentication failed", "err", err)
		renderError(w, r, http.StatusInternalServerError, "Authentication failed")
	}
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/clavionx/ecs-auth/pkg/device"
	"github.com/clavionx/ecs-auth/pkg/tracking"
)

// DeviceHandler handles HTTP requests for trusted-device management. Routes
// must be mounted behind tracking.RequireAuth.
type DeviceHandler struct {
	devices *device.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(devices *device.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		devices: devices,
	}
}

// RegisterRoutes registers the device management routes
func (h *DeviceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListDevices)
	r.Post("/revoke-all", h.RevokeAllDevices)
}

// DeviceSummary is one row in the trusted-device list
type DeviceSummary struct {
	Fingerprint string    `json:"fingerprint"`
	DeviceName  string    `json:"device_name,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	TrustedAt   time.Time `json:"trusted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	LastUsed    time.Time `json:"last_used"`
	Active      bool      `json:"active"`
}

// ListDevicesResponse represents the response body for listing devices
type ListDevicesResponse struct {
	Status  string          `json:"status"`
	Devices []DeviceSummary `json:"devices"`
}

// ListDevices handles GET /devices - the current user's trusted devices
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	principal, ok := tracking.PrincipalFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	devices, err := h.devices.ListForUser(r.Context(), principal.UserID)
	if err != nil {
		slog.Error("Failed to list devices", "user_id", principal.UserID, "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to list devices")
		return
	}

	summaries := make([]DeviceSummary, 0, len(devices))
	for _, d := range devices {
		summaries = append(summaries, DeviceSummary{
			Fingerprint: d.Fingerprint,
			DeviceName:  d.DeviceName,
			UserAgent:   d.UserAgent,
			IPAddress:   d.IPAddress,
			TrustedAt:   d.TrustedAt,
			ExpiresAt:   d.ExpiresAt,
			LastUsed:    d.LastUsed,
			Active:      d.Active,
		})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ListDevicesResponse{
		Status:  "success",
		Devices: summaries,
	})
}

// RevokeAllDevices handles POST /devices/revoke-all - forget every trusted
// device, forcing the two-factor gate on the next login from each of them
func (h *DeviceHandler) RevokeAllDevices(w http.ResponseWriter, r *http.Request) {
	principal, ok := tracking.PrincipalFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.devices.RevokeAll(r.Context(), principal.UserID); err != nil {
		slog.Error("Failed to revoke devices", "user_id", principal.UserID, "error", err)
		renderError(w, r, http.StatusInternalServerError, "Failed to revoke devices")
		return
	}

	slog.Info("Trusted devices revoked", "username", principal.Username)
	renderSuccess(w, r, "Trusted devices revoked")
}

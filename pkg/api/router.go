package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/clavionx/ecs-auth/pkg/session/sessionmetrics"
	"github.com/clavionx/ecs-auth/pkg/tracking"
)

// RouterDeps holds the handlers and middleware the HTTP surface is built from.
type RouterDeps struct {
	Auth     *AuthHandler
	Sessions *SessionHandler
	Devices  *DeviceHandler
	Tracker  *tracking.Tracker
}

// NewRouter assembles the service's routes. Session resolution and activity
// tracking run on every request; the management routes additionally require
// an authenticated principal.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(deps.Tracker.SessionAuth)
	r.Use(deps.Tracker.ActivityTracker)

	r.Route("/auth", deps.Auth.RegisterRoutes)

	r.Group(func(pr chi.Router) {
		pr.Use(tracking.RequireAuth)
		pr.Route("/sessions", deps.Sessions.RegisterRoutes)
		pr.Route("/devices", deps.Devices.RegisterRoutes)
	})

	r.Handle("/metrics", sessionmetrics.Handler())

	return r
}

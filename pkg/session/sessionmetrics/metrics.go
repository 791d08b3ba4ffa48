package sessionmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_sessions_created_total",
		Help: "Sessions created.",
	})

	SessionsTerminated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_terminated_total",
			Help: "Sessions terminated, by reason.",
		},
		[]string{"reason"}, // logout, evicted, bulk, stale
	)

	TouchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_session_touch_failures_total",
		Help: "Activity updates that found no active session.",
	})

	CleanupRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_session_cleanup_runs_total",
			Help: "Background cleanup runs, by outcome.",
		},
		[]string{"outcome"}, // ok, error
	)
)

// Init registers the session metrics in the default registry.
func Init() {
	prometheus.MustRegister(SessionsCreated, SessionsTerminated, TouchFailures, CleanupRuns)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/clavionx/ecs-auth/pkg/session/sessionmetrics"
)

// CleanupTask is one unit of periodic maintenance work. Returns how many
// rows it affected.
type CleanupTask struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Cleaner runs session maintenance on a fixed interval in the background:
// stale-session termination, retention purges, and any extra tasks wired in
// (trusted-device expiry, consumed-code purges).
type Cleaner struct {
	service  *SessionService
	interval time.Duration
	extra    []CleanupTask
}

// CleanerOption configures a Cleaner
type CleanerOption func(*Cleaner)

// WithCleanupInterval sets how often the cleaner runs
func WithCleanupInterval(d time.Duration) CleanerOption {
	return func(c *Cleaner) {
		c.interval = d
	}
}

// WithExtraTask adds a maintenance task to each cleanup run
func WithExtraTask(name string, run func(ctx context.Context) (int, error)) CleanerOption {
	return func(c *Cleaner) {
		c.extra = append(c.extra, CleanupTask{Name: name, Run: run})
	}
}

// NewCleaner creates a new background cleaner for the session service
func NewCleaner(service *SessionService, opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		service:  service,
		interval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the cleanup loop until the context is cancelled. Call in a
// goroutine.
func (c *Cleaner) Start(ctx context.Context) {
	slog.Info("Session cleaner started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Session cleaner stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass. Task failures are logged and do
// not stop the remaining tasks.
func (c *Cleaner) RunOnce(ctx context.Context) {
	tasks := []CleanupTask{
		{Name: "stale_sessions", Run: c.service.CleanupStale},
		{Name: "session_retention", Run: c.service.PurgeInactive},
	}
	tasks = append(tasks, c.extra...)

	failed := false
	for _, task := range tasks {
		count, err := task.Run(ctx)
		if err != nil {
			failed = true
			slog.Error("Cleanup task failed", "task", task.Name, "error", err)
			continue
		}
		if count > 0 {
			slog.Debug("Cleanup task finished", "task", task.Name, "count", count)
		}
	}

	outcome := "ok"
	if failed {
		outcome = "error"
	}
	sessionmetrics.CleanupRuns.WithLabelValues(outcome).Inc()
}

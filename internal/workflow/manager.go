package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"collator/internal/config"
	"collator/internal/jobs"
	"collator/internal/notifications"
	"collator/internal/stage"
)

// Manager coordinates job processing for the aggregation stage.
type Manager struct {
	cfg          *config.Config
	store        *jobs.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat *HeartbeatMonitor
	handler   stage.Handler

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *jobs.Job
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *jobs.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.JobPollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStage registers the aggregation handler the poll loop executes.
// It must be called before Start.
func (m *Manager) ConfigureStage(handler stage.Handler) {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
}

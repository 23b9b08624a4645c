package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"collator/internal/config"
	"collator/internal/jobs"
	"collator/internal/logging"
	"collator/internal/notifications"
	"collator/internal/request"
	"collator/internal/workflow"
)

var errEmptyPayload = errors.New("request payload is required")

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	workflow *workflow.Manager
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	JobDBPath    string
	LockFilePath string
	StoreRoot    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, wf *workflow.Manager, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "collatord.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		notifier: notifier,
		logPath:  filepath.Join(cfg.Paths.LogDir, config.DaemonLogFileName),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, and launches the
// workflow manager and HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another collator daemon instance is already running")
	}

	// Holding the lock proves no other worker owns in-flight jobs, so any
	// job still AGGREGATING was orphaned by an earlier run.
	if reset, resetErr := d.store.ResetStuckAggregating(ctx); resetErr != nil {
		d.logger.Warn("failed to reset interrupted jobs", logging.Error(resetErr))
	} else if reset > 0 {
		d.logger.Info("reset interrupted jobs", logging.Int64("jobs", reset))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if srv := newAPIServer(d.cfg, d, d.logger); srv != nil {
		if err := srv.start(d.ctx); err != nil {
			d.workflow.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start api server: %w", err)
		}
		d.api = srv
	}

	d.running.Store(true)
	d.logger.Info("collator daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.api = nil
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("collator daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Submit records an aggregation request. Invalid payloads are preserved as
// terminal ERROR jobs so operators can inspect what arrived; the boolean
// reports whether the request was accepted for processing.
func (d *Daemon) Submit(ctx context.Context, raw []byte) (*jobs.Job, bool, error) {
	if d.store == nil {
		return nil, false, errors.New("job store unavailable")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, errEmptyPayload
	}

	env, err := request.Parse(trimmed)
	if err != nil {
		job, storeErr := d.store.EnqueueInvalid(ctx, env.JobID, string(trimmed), err.Error())
		if storeErr != nil {
			return nil, false, fmt.Errorf("record invalid request: %w", storeErr)
		}
		d.logger.Warn("rejected aggregation request",
			logging.String(logging.FieldJobID, job.JobID),
			logging.Error(err),
		)
		return job, false, nil
	}

	job, err := d.store.Enqueue(ctx, env, string(trimmed))
	if err != nil {
		return nil, false, fmt.Errorf("enqueue aggregation request: %w", err)
	}
	d.logger.Info("aggregation request queued",
		logging.Int64(logging.FieldJobRef, job.ID),
		logging.String(logging.FieldJobID, job.JobID),
		logging.Int("chunks", job.ChunksTotal),
	)
	if d.notifier != nil {
		if notifyErr := d.notifier.NotifyJobQueued(ctx, job.Label, job.ChunksTotal); notifyErr != nil {
			d.logger.Debug("queued notification failed", logging.Error(notifyErr))
		}
	}
	return job, true, nil
}

// ListJobs returns jobs filtered by optional statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []jobs.Status) ([]*jobs.Job, error) {
	if d.store == nil {
		return nil, errors.New("job store unavailable")
	}
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetJob fetches a single job by store identifier.
func (d *Daemon) GetJob(ctx context.Context, id int64) (*jobs.Job, error) {
	if d.store == nil {
		return nil, errors.New("job store unavailable")
	}
	return d.store.GetByID(ctx, id)
}

// ClearJobs removes jobs, optionally restricted to the given statuses.
func (d *Daemon) ClearJobs(ctx context.Context, statuses []jobs.Status) (int64, error) {
	if d.store == nil {
		return 0, errors.New("job store unavailable")
	}
	return d.store.Clear(ctx, statuses...)
}

// ResetStuck transitions in-flight jobs back to pending for retry.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("job store unavailable")
	}
	return d.store.ResetStuckAggregating(ctx)
}

// RetryFailed resets failed jobs (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("job store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// JobHealth returns aggregate job diagnostics.
func (d *Daemon) JobHealth(ctx context.Context) (jobs.HealthSummary, error) {
	if d.store == nil {
		return jobs.HealthSummary{}, errors.New("job store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (jobs.DatabaseHealth, error) {
	if d.store == nil {
		return jobs.DatabaseHealth{}, errors.New("job store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := d.notifier
	if notifier == nil {
		notifier = notifications.NewService(d.cfg)
	}
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		JobDBPath:    d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		StoreRoot:    d.cfg.Paths.StoreRoot,
	}
}

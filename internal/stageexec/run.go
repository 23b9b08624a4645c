// Package stageexec executes the aggregation stage against a single job and
// applies the store transition semantics shared by the workflow manager and
// the one-shot CLI path.
package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"collator/internal/jobs"
	"collator/internal/logging"
	"collator/internal/notifications"
	"collator/internal/services"
	"collator/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *jobs.Job) error
	Execute(context.Context, *jobs.Job) error
}

// Options controls stage execution and job persistence behavior.
type Options struct {
	Logger    *slog.Logger
	Store     *jobs.Store
	Notifier  notifications.Service
	Handler   Handler
	StageName string
	Job       *jobs.Job
}

// Run executes the aggregation stage for one job: it claims the job
// (AGGREGATING with a fresh heartbeat), runs Prepare and Execute with
// persistence between them, and routes failures through the error taxonomy
// into FAILED or terminal ERROR.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("job store is required")
	}
	if opts.Job == nil {
		return fmt.Errorf("job is required")
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageCtx = services.WithJobRef(stageCtx, opts.Job.ID)
	stageCtx = services.WithJobID(stageCtx, opts.Job.JobID)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("label", strings.TrimSpace(opts.Job.Label)),
		logging.String(logging.FieldBucket, strings.TrimSpace(opts.Job.Bucket)),
	)

	claimJob(opts.Job)
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Job); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Job); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		return handleFailure(stageCtx, stageLogger, opts, err)
	}

	if opts.Job.Status == jobs.StatusAggregating || opts.Job.Status == "" {
		opts.Job.Status = jobs.StatusAggregated
	}
	opts.Job.LastHeartbeat = nil
	if err := opts.Store.Update(stageCtx, opts.Job); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Job.Status)),
		logging.String("status_message", strings.TrimSpace(opts.Job.StatusMessage)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) error {
	job := opts.Job
	message := fmt.Sprintf("Result aggregation failed: %v", stageErr)
	job.SetFailed(message)
	if status := services.FailureStatus(stageErr); status != jobs.StatusFailed {
		job.Status = status
	}

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(job.Status)),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	if err := opts.Store.Update(ctx, job); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	if opts.Notifier != nil {
		if err := opts.Notifier.NotifyJobFailed(ctx, job.Label, message); err != nil {
			logger.Debug("stage failure notification failed", logging.Error(err))
		}
	}

	return stageErr
}

// claimJob moves the job into the in-flight state with a fresh heartbeat. The
// status message is left for Prepare to fill unless it is still empty.
func claimJob(job *jobs.Job) {
	now := time.Now().UTC()
	job.Status = jobs.StatusAggregating
	if job.StatusMessage == "" {
		job.StatusMessage = "Aggregation started"
	}
	job.ErrorMessage = ""
	job.LastHeartbeat = &now
}

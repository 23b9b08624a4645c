package workflow

import (
	"context"
	"errors"

	"collator/internal/jobs"
	"collator/internal/logging"
)

func (m *Manager) notifyAggregationStarted(ctx context.Context, job *jobs.Job) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyAggregationStarted(ctx, job.Label, job.ChunksTotal); err != nil {
		// Check if this is a context cancellation (normal shutdown)
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send aggregation start notification")
		} else {
			m.logger.Debug("aggregation start notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) notifyJobAggregated(ctx context.Context, job *jobs.Job) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyJobAggregated(ctx, job.Label, job.PromptKey, job.ChunksAggregated); err != nil {
		// Check if this is a context cancellation (normal shutdown)
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send aggregation completion notification")
		} else {
			m.logger.Debug("aggregation completion notification failed", logging.Error(err))
		}
	}
}

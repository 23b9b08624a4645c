package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"collator/internal/jobs"
	"collator/internal/services"
	"collator/internal/stageexec"
)

func (m *Manager) processJob(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	requestID := uuid.NewString()
	jobCtx := services.WithRequestID(ctx, requestID)

	m.setLastJob(job)
	m.notifyAggregationStarted(jobCtx, job)

	execErr := m.executeWithHeartbeat(jobCtx, job)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.setLastError(execErr)
		m.setLastJob(job)
		return execErr
	}

	m.setLastJob(job)
	m.notifyJobAggregated(jobCtx, job)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, job *jobs.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := stageexec.Run(ctx, stageexec.Options{
		Logger:    m.logger,
		Store:     m.store,
		Notifier:  m.notifier,
		Handler:   m.handler,
		StageName: "aggregation",
		Job:       job,
	})
	hbCancel()
	hbWG.Wait()
	return execErr
}

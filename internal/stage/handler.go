package stage

import (
	"context"
	"log/slog"

	"collator/internal/jobs"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *jobs.Job) error
	Execute(context.Context, *jobs.Job) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by handlers that accept a job-scoped logger
// before execution.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

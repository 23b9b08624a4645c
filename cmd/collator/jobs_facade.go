package main

import (
	"context"
	"strings"

	"collator/internal/api"
	"collator/internal/ipc"
	"collator/internal/jobs"
)

// jobsAPI abstracts job management so commands behave identically whether
// they reach the daemon over IPC or open the store directly. Describe and
// Retry deliberately match api.JobActionService so per-job retry flows work
// against either backend.
type jobsAPI interface {
	List(ctx context.Context, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id int64) (*api.Job, error)
	Clear(ctx context.Context, statuses []string) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	RetryAll(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
}

// --- IPC adapter ---

type jobsIPCAdapter struct {
	client *ipc.Client
}

func (a *jobsIPCAdapter) List(_ context.Context, statuses []string) ([]api.Job, error) {
	resp, err := a.client.JobList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (a *jobsIPCAdapter) Describe(_ context.Context, id int64) (*api.Job, error) {
	resp, err := a.client.JobDescribe(id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, nil
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	job := resp.Job
	return &job, nil
}

func (a *jobsIPCAdapter) Clear(_ context.Context, statuses []string) (int64, error) {
	resp, err := a.client.JobClear(statuses)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *jobsIPCAdapter) ResetStuck(context.Context) (int64, error) {
	resp, err := a.client.JobReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *jobsIPCAdapter) RetryAll(context.Context) (int64, error) {
	resp, err := a.client.JobRetry(nil)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *jobsIPCAdapter) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.JobRetry(ids)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// --- Store adapter ---

type jobsStoreAdapter struct {
	store   *jobs.Store
	service *api.JobService
}

func (a *jobsStoreAdapter) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	return a.service.List(ctx, parseStatusFilters(statuses)...)
}

func (a *jobsStoreAdapter) Describe(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.Describe(ctx, id)
}

func (a *jobsStoreAdapter) Clear(ctx context.Context, statuses []string) (int64, error) {
	return a.store.Clear(ctx, parseStatusFilters(statuses)...)
}

func (a *jobsStoreAdapter) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckAggregating(ctx)
}

func (a *jobsStoreAdapter) RetryAll(ctx context.Context) (int64, error) {
	return a.store.RetryFailed(ctx)
}

func (a *jobsStoreAdapter) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func parseStatusFilters(values []string) []jobs.Status {
	var filters []jobs.Status
	for _, value := range values {
		if parsed, ok := jobs.ParseStatus(value); ok {
			filters = append(filters, parsed)
		}
	}
	return filters
}

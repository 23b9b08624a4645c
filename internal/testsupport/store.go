package testsupport

import (
	"context"
	"testing"

	"collator/internal/config"
	"collator/internal/jobs"
	"collator/internal/request"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEnvelope builds a minimal valid aggregation request for tests.
func NewEnvelope(jobID string, chunks ...request.ChunkResult) request.Envelope {
	return request.Envelope{
		JobID:        jobID,
		Bucket:       "analysis-bucket",
		OutputPath:   "results",
		ChunkResults: chunks,
	}
}

// NewJob enqueues a pending job for tests using the provided store.
func NewJob(t testing.TB, store *jobs.Store, env request.Envelope) *jobs.Job {
	t.Helper()

	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	job, err := store.Enqueue(context.Background(), env, raw)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return job
}

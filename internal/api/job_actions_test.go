package api

import (
	"context"
	"testing"

	"collator/internal/jobs"
)

type stubActionService struct {
	jobsByID map[int64]*Job
	retried  []int64
}

func (s *stubActionService) Describe(_ context.Context, id int64) (*Job, error) {
	return s.jobsByID[id], nil
}

func (s *stubActionService) Retry(_ context.Context, ids []int64) (int64, error) {
	s.retried = append(s.retried, ids...)
	return int64(len(ids)), nil
}

func TestRetryFailedJobsByID(t *testing.T) {
	service := &stubActionService{jobsByID: map[int64]*Job{
		1: {ID: 1, Status: string(jobs.StatusFailed)},
		2: {ID: 2, Status: string(jobs.StatusAggregated)},
		3: {ID: 3, Status: string(jobs.StatusError)},
	}}

	result, err := RetryFailedJobsByID(context.Background(), service, []int64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("RetryFailedJobsByID returned error: %v", err)
	}
	if result.UpdatedCount != 1 {
		t.Fatalf("expected one updated job, got %d", result.UpdatedCount)
	}
	if len(result.Jobs) != 4 {
		t.Fatalf("expected four outcomes, got %d", len(result.Jobs))
	}
	wantOutcomes := map[int64]RetryJobOutcome{
		1: RetryJobUpdated,
		2: RetryJobNotFailed,
		3: RetryJobNotFailed,
		4: RetryJobNotFound,
	}
	for _, outcome := range result.Jobs {
		if want := wantOutcomes[outcome.ID]; outcome.Outcome != want {
			t.Fatalf("job %d: expected outcome %q, got %q", outcome.ID, want, outcome.Outcome)
		}
	}
	if len(service.retried) != 1 || service.retried[0] != 1 {
		t.Fatalf("expected only job 1 to be retried, got %v", service.retried)
	}
}

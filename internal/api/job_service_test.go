package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"collator/internal/jobs"
)

type mockJobReader struct {
	records  []*jobs.Job
	stats    map[jobs.Status]int
	readErr  error
	statsErr error
}

func (m *mockJobReader) List(context.Context, ...jobs.Status) ([]*jobs.Job, error) {
	return m.records, m.readErr
}

func (m *mockJobReader) Stats(context.Context) (map[jobs.Status]int, error) {
	return m.stats, m.statsErr
}

func (m *mockJobReader) GetByID(context.Context, int64) (*jobs.Job, error) {
	if len(m.records) == 0 {
		return nil, m.readErr
	}
	return m.records[0], m.readErr
}

func TestJobService_List(t *testing.T) {
	now := time.Now().UTC()
	reader := &mockJobReader{
		records: []*jobs.Job{{
			ID:        1,
			JobID:     "job-1",
			Label:     "ledger-export",
			Status:    jobs.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}},
	}
	svc := NewJobService(reader)
	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected job count: %d", len(got))
	}
	if got[0].Label != "ledger-export" {
		t.Fatalf("unexpected label: %q", got[0].Label)
	}
	if got[0].Status != string(jobs.StatusPending) {
		t.Fatalf("unexpected status: %q", got[0].Status)
	}
	if got[0].CreatedAt == "" || got[0].UpdatedAt == "" {
		t.Fatalf("expected timestamps to be formatted")
	}
}

func TestJobService_ListError(t *testing.T) {
	errSentinel := errors.New("boom")
	svc := NewJobService(&mockJobReader{readErr: errSentinel})
	_, err := svc.List(context.Background())
	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected error %v, got %v", errSentinel, err)
	}
}

func TestJobService_Stats(t *testing.T) {
	svc := NewJobService(&mockJobReader{stats: map[jobs.Status]int{
		jobs.StatusPending: 2,
		jobs.StatusFailed:  1,
	}})
	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if got[string(jobs.StatusPending)] != 2 || got[string(jobs.StatusFailed)] != 1 {
		t.Fatalf("unexpected stats: %v", got)
	}
}

func TestJobService_Describe(t *testing.T) {
	reader := &mockJobReader{records: []*jobs.Job{{ID: 4, JobID: "job-4", Status: jobs.StatusAggregated}}}
	svc := NewJobService(reader)
	got, err := svc.Describe(context.Background(), 4)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if got == nil || got.ID != 4 {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestJobService_DescribeMissing(t *testing.T) {
	svc := NewJobService(&mockJobReader{})
	got, err := svc.Describe(context.Background(), 99)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing job, got %+v", got)
	}
}

func TestJobService_NilReceiver(t *testing.T) {
	var svc *JobService
	if got, err := svc.List(context.Background()); err != nil || got != nil {
		t.Fatalf("expected nil results from nil service, got %v %v", got, err)
	}
	if NewJobService(nil) != nil {
		t.Fatalf("expected nil service for nil reader")
	}
}

package spool_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"collator/internal/jobs"
	"collator/internal/logging"
	"collator/internal/request"
	"collator/internal/spool"
	"collator/internal/testsupport"
)

type stubSubmitter struct {
	mu       sync.Mutex
	accepted []string
	rejected []string
}

func (s *stubSubmitter) Submit(_ context.Context, raw []byte) (*jobs.Job, bool, error) {
	env, err := request.Parse(raw)
	if err != nil {
		s.mu.Lock()
		s.rejected = append(s.rejected, env.JobID)
		s.mu.Unlock()
		return &jobs.Job{JobID: env.JobID, Status: jobs.StatusError, ErrorMessage: err.Error()}, false, nil
	}
	s.mu.Lock()
	s.accepted = append(s.accepted, env.JobID)
	s.mu.Unlock()
	return &jobs.Job{JobID: env.JobID, Status: jobs.StatusPending}, true, nil
}

func (s *stubSubmitter) snapshot() (accepted, rejected []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.accepted...), append([]string(nil), s.rejected...)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("ReadDir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestWatcherIngestsDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	stub := &stubSubmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	w, err := spool.NewWatcher(ctx, dir, stub, logging.NewNop())
	if err != nil {
		t.Fatalf("spool.NewWatcher: %v", err)
	}
	w.Start()
	t.Cleanup(w.Close)

	env := testsupport.NewEnvelope("job-spool-ok", request.ChunkResult{
		ChunkIndex: 0,
		Status:     "COMPLETED",
		SummaryKey: "results/job-spool-ok/chunk_0_summary.json",
	})
	payload, err := env.Encode()
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ok.json"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write ok.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"job_id":"job-spool-bad"}`), 0o644); err != nil {
		t.Fatalf("write bad.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a request"), 0o644); err != nil {
		t.Fatalf("write notes.txt: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		processed := listDir(t, filepath.Join(dir, "processed"))
		failed := listDir(t, filepath.Join(dir, "failed"))
		if len(processed) == 1 && len(failed) == 1 {
			if !strings.HasSuffix(processed[0], "-ok.json") {
				t.Fatalf("unexpected processed archive name %q", processed[0])
			}
			if !strings.HasSuffix(failed[0], "-bad.json") {
				t.Fatalf("unexpected failed archive name %q", failed[0])
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for ingestion: processed=%v failed=%v", processed, failed)
		case <-time.After(25 * time.Millisecond):
		}
	}

	accepted, rejected := stub.snapshot()
	if len(accepted) != 1 || accepted[0] != "job-spool-ok" {
		t.Fatalf("unexpected accepted jobs %v", accepted)
	}
	if len(rejected) != 1 || rejected[0] != "job-spool-bad" {
		t.Fatalf("unexpected rejected jobs %v", rejected)
	}

	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("expected non-request file to stay put: %v", err)
	}
}

func TestWatcherSweepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	stub := &stubSubmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	env := testsupport.NewEnvelope("job-spool-existing", request.ChunkResult{
		ChunkIndex: 0,
		Status:     "COMPLETED",
		SummaryKey: "results/job-spool-existing/chunk_0_summary.json",
	})
	payload, err := env.Encode()
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "existing.json"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write existing.json: %v", err)
	}

	w, err := spool.NewWatcher(ctx, dir, stub, logging.NewNop())
	if err != nil {
		t.Fatalf("spool.NewWatcher: %v", err)
	}
	w.Start()
	t.Cleanup(w.Close)

	accepted, _ := stub.snapshot()
	if len(accepted) != 1 || accepted[0] != "job-spool-existing" {
		t.Fatalf("unexpected accepted jobs %v", accepted)
	}
	processed := listDir(t, filepath.Join(dir, "processed"))
	if len(processed) != 1 {
		t.Fatalf("expected existing file archived, got %v", processed)
	}
}

func TestNewWatcherValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := spool.NewWatcher(ctx, "", &stubSubmitter{}, logging.NewNop()); err == nil {
		t.Fatal("expected error for empty directory")
	}
	if _, err := spool.NewWatcher(ctx, t.TempDir(), nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for nil submitter")
	}
}

package aggregator_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"collator/internal/aggregator"
	"collator/internal/config"
	"collator/internal/jobs"
	"collator/internal/logging"
	"collator/internal/objectstore"
	"collator/internal/prompt"
	"collator/internal/request"
	"collator/internal/services"
	"collator/internal/testsupport"
)

type stubObjectStore struct {
	summaries map[string]string
	putErr    error
}

func (s *stubObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if content, ok := s.summaries[key]; ok {
		return []byte(content), nil
	}
	return nil, objectstore.ErrNotFound
}

func (s *stubObjectStore) Put(ctx context.Context, bucket, key string, body []byte, opts objectstore.PutOptions) error {
	return s.putErr
}

func (s *stubObjectStore) Stat(ctx context.Context, bucket, key string) (objectstore.ObjectInfo, error) {
	if content, ok := s.summaries[key]; ok {
		return objectstore.ObjectInfo{Key: key, Size: int64(len(content))}, nil
	}
	return objectstore.ObjectInfo{}, objectstore.ErrNotFound
}

func readPrompt(t *testing.T, cfg *config.Config, bucket, key string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.StoreRoot, bucket, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read prompt %s: %v", path, err)
	}
	return string(data)
}

func TestAggregatorBuildsPromptFromChunkSummaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	env := testsupport.NewEnvelope("job-001",
		request.ChunkResult{ChunkIndex: 0, Status: "completed", SummaryKey: "results/job-001/chunk-0-summary.txt"},
		request.ChunkResult{ChunkIndex: 1, Status: "completed", SummaryKey: "results/job-001/chunk-1-summary.txt"},
		request.ChunkResult{ChunkIndex: 2, Status: "completed", SummaryKey: "results/job-001/chunk-2-summary.txt"},
	)
	testsupport.WriteObject(t, cfg.Paths.StoreRoot, env.Bucket, "results/job-001/chunk-0-summary.txt", "COBOL batch billing overview")
	testsupport.WriteObject(t, cfg.Paths.StoreRoot, env.Bucket, "results/job-001/chunk-1-summary.txt", "VSAM customer master file layout")
	testsupport.WriteObject(t, cfg.Paths.StoreRoot, env.Bucket, "results/job-001/chunk-2-summary.txt", "CICS transaction flow notes")
	job := testsupport.NewJob(t, store, env)

	handler, err := aggregator.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("aggregator.New: %v", err)
	}
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if job.Status != jobs.StatusAggregating {
		t.Fatalf("expected AGGREGATING after Prepare, got %s", job.Status)
	}
	if job.StatusMessage != "Collating summaries from 3 chunks and performing cross-chunk analysis" {
		t.Fatalf("unexpected progress message %q", job.StatusMessage)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.Status != jobs.StatusAggregated {
		t.Fatalf("expected AGGREGATED, got %s", job.Status)
	}
	wantKey := "results/job-001/aggregated_analysis_prompt.txt"
	if job.PromptKey != wantKey {
		t.Fatalf("prompt key = %q, want %q", job.PromptKey, wantKey)
	}
	if job.ChunksAggregated != 3 {
		t.Fatalf("chunks aggregated = %d, want 3", job.ChunksAggregated)
	}
	if job.StatusMessage != "Aggregated 3 chunk summaries and prepared cross-chunk analysis prompt" {
		t.Fatalf("unexpected status message %q", job.StatusMessage)
	}

	body := readPrompt(t, cfg, env.Bucket, wantKey)
	for _, fragment := range []string{
		"## CHUNK 0 ANALYSIS\n\nCOBOL batch billing overview",
		"## CHUNK 1 ANALYSIS\n\nVSAM customer master file layout",
		"## CHUNK 2 ANALYSIS\n\nCICS transaction flow notes",
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("prompt missing %q", fragment)
		}
	}
	if got := strings.Count(body, prompt.Divider); got != 2 {
		t.Fatalf("expected 2 section dividers, got %d", got)
	}
}

func TestAggregatorSkipsUnusableChunks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	env := testsupport.NewEnvelope("job-002",
		request.ChunkResult{ChunkIndex: 0, Status: "error", SummaryKey: "results/job-002/chunk-0-summary.txt"},
		request.ChunkResult{ChunkIndex: 1, Status: "completed"},
		request.ChunkResult{ChunkIndex: 2, Status: "completed", SummaryKey: "results/job-002/missing.txt"},
		request.ChunkResult{ChunkIndex: 3, Status: "completed", SummaryKey: "results/job-002/chunk-3-summary.txt"},
	)
	testsupport.WriteObject(t, cfg.Paths.StoreRoot, env.Bucket, "results/job-002/chunk-3-summary.txt", "IMS database notes")
	job := testsupport.NewJob(t, store, env)

	handler, err := aggregator.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("aggregator.New: %v", err)
	}
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.Status != jobs.StatusAggregated {
		t.Fatalf("expected AGGREGATED, got %s", job.Status)
	}
	if job.ChunksTotal != 4 {
		t.Fatalf("chunks total = %d, want 4", job.ChunksTotal)
	}
	if job.ChunksAggregated != 1 {
		t.Fatalf("chunks aggregated = %d, want 1", job.ChunksAggregated)
	}
	if job.StatusMessage != "Aggregated 4 chunk summaries and prepared cross-chunk analysis prompt" {
		t.Fatalf("unexpected status message %q", job.StatusMessage)
	}

	body := readPrompt(t, cfg, env.Bucket, job.PromptKey)
	if !strings.Contains(body, "## CHUNK 3 ANALYSIS\n\nIMS database notes") {
		t.Fatalf("prompt missing usable section:\n%s", body)
	}
	for _, header := range []string{"## CHUNK 0 ANALYSIS", "## CHUNK 1 ANALYSIS", "## CHUNK 2 ANALYSIS"} {
		if strings.Contains(body, header) {
			t.Fatalf("prompt should not contain %q", header)
		}
	}
	if strings.Contains(body, prompt.Divider) {
		t.Fatal("single-section prompt should not contain a divider")
	}
}

func TestAggregatorAllowsEmptyChunkList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	env := testsupport.NewEnvelope("job-003")
	job := testsupport.NewJob(t, store, env)

	handler, err := aggregator.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("aggregator.New: %v", err)
	}
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if job.StatusMessage != "Collating summaries from 0 chunks and performing cross-chunk analysis" {
		t.Fatalf("unexpected progress message %q", job.StatusMessage)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.Status != jobs.StatusAggregated {
		t.Fatalf("expected AGGREGATED, got %s", job.Status)
	}
	if job.ChunksAggregated != 0 {
		t.Fatalf("chunks aggregated = %d, want 0", job.ChunksAggregated)
	}

	body := readPrompt(t, cfg, env.Bucket, job.PromptKey)
	if !strings.HasPrefix(body, "Please analyze the following mainframe documentation summaries") {
		t.Fatalf("prompt missing template preamble:\n%s", body)
	}
	if strings.Contains(body, "## CHUNK") {
		t.Fatal("empty request should produce a prompt with no chunk sections")
	}
}

func TestAggregatorPreservesRequestOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	env := testsupport.NewEnvelope("job-004",
		request.ChunkResult{ChunkIndex: 2, Status: "completed", SummaryKey: "results/job-004/chunk-2-summary.txt"},
		request.ChunkResult{ChunkIndex: 0, Status: "completed", SummaryKey: "results/job-004/chunk-0-summary.txt"},
	)
	testsupport.WriteObject(t, cfg.Paths.StoreRoot, env.Bucket, "results/job-004/chunk-2-summary.txt", "later chunk")
	testsupport.WriteObject(t, cfg.Paths.StoreRoot, env.Bucket, "results/job-004/chunk-0-summary.txt", "earlier chunk")
	job := testsupport.NewJob(t, store, env)

	handler, err := aggregator.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("aggregator.New: %v", err)
	}
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	body := readPrompt(t, cfg, env.Bucket, job.PromptKey)
	second := strings.Index(body, "## CHUNK 2 ANALYSIS")
	zeroth := strings.Index(body, "## CHUNK 0 ANALYSIS")
	if second < 0 || zeroth < 0 {
		t.Fatalf("prompt missing sections:\n%s", body)
	}
	if second > zeroth {
		t.Fatal("sections should keep the order the request listed them in")
	}
}

func TestAggregatorDecodesNonUTF8Summaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	env := testsupport.NewEnvelope("job-005",
		request.ChunkResult{ChunkIndex: 0, Status: "completed", SummaryKey: "results/job-005/chunk-0-summary.txt"},
	)
	utf16 := string([]byte{0xFF, 0xFE, 'V', 0x00, 'T', 0x00, 'A', 0x00, 'M', 0x00})
	testsupport.WriteObject(t, cfg.Paths.StoreRoot, env.Bucket, "results/job-005/chunk-0-summary.txt", utf16)
	job := testsupport.NewJob(t, store, env)

	handler, err := aggregator.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("aggregator.New: %v", err)
	}
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	body := readPrompt(t, cfg, env.Bucket, job.PromptKey)
	if !strings.Contains(body, "## CHUNK 0 ANALYSIS\n\nVTAM") {
		t.Fatalf("prompt missing decoded summary:\n%s", body)
	}
}

func TestAggregatorFailsWhenPromptWriteFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	env := testsupport.NewEnvelope("job-006",
		request.ChunkResult{ChunkIndex: 0, Status: "completed", SummaryKey: "results/job-006/chunk-0-summary.txt"},
	)
	job := testsupport.NewJob(t, store, env)

	objects := &stubObjectStore{
		summaries: map[string]string{"results/job-006/chunk-0-summary.txt": "JCL scheduling overview"},
		putErr:    errors.New("disk full"),
	}
	handler := aggregator.NewWithObjectStore(cfg, store, objects, logging.NewNop())
	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected Execute to fail when the prompt cannot be stored")
	}
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage classification, got %v", err)
	}
	if got := services.FailureStatus(err); got != jobs.StatusFailed {
		t.Fatalf("expected FAILED classification, got %s", got)
	}
}

func TestAggregatorPrepareRejectsCorruptRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job := testsupport.NewJob(t, store, testsupport.NewEnvelope("job-007"))
	job.RequestJSON = "{not json"

	handler, err := aggregator.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("aggregator.New: %v", err)
	}
	prepErr := handler.Prepare(context.Background(), job)
	if prepErr == nil {
		t.Fatal("expected Prepare to reject a corrupt request record")
	}
	if !errors.Is(prepErr, services.ErrValidation) {
		t.Fatalf("expected validation classification, got %v", prepErr)
	}
	if got := services.FailureStatus(prepErr); got != jobs.StatusError {
		t.Fatalf("expected ERROR classification, got %s", got)
	}
}

func TestOutcomeFromJob(t *testing.T) {
	job := &jobs.Job{
		JobID:            "job-010",
		Bucket:           "analysis-bucket",
		OutputPath:       "results",
		PromptKey:        "results/job-010/aggregated_analysis_prompt.txt",
		ChunksTotal:      5,
		ChunksAggregated: 4,
		Status:           jobs.StatusAggregated,
		StatusMessage:    "Aggregated 5 chunk summaries and prepared cross-chunk analysis prompt",
	}

	outcome := aggregator.OutcomeFromJob(job)
	if !outcome.CrossChunkAnalysis {
		t.Fatal("aggregated job should report cross-chunk analysis")
	}
	if outcome.ChunksRequested != 5 || outcome.ChunksAggregated != 4 {
		t.Fatalf("unexpected chunk counts: requested=%d aggregated=%d", outcome.ChunksRequested, outcome.ChunksAggregated)
	}
	if outcome.PromptKey != job.PromptKey {
		t.Fatalf("prompt key = %q, want %q", outcome.PromptKey, job.PromptKey)
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("marshal outcome: %v", err)
	}
	for _, key := range []string{`"job_id"`, `"bucket_name"`, `"full_prompt_key"`, `"chunks_processed"`, `"cross_chunk_analysis"`} {
		if !strings.Contains(string(payload), key) {
			t.Fatalf("outcome payload missing %s: %s", key, payload)
		}
	}

	if failed := aggregator.OutcomeFromJob(&jobs.Job{Status: jobs.StatusFailed}); failed.CrossChunkAnalysis {
		t.Fatal("failed job should not report cross-chunk analysis")
	}
}

func TestAggregatorHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler, err := aggregator.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("aggregator.New: %v", err)
	}
	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected healthy aggregator: %s", health.Detail)
	}
	if health.Name != "aggregator" {
		t.Fatalf("unexpected health name %q", health.Name)
	}

	missing := testsupport.NewConfig(t)
	missing.Paths.StoreRoot = filepath.Join(testsupport.BaseDir(missing), "absent")
	unready := aggregator.NewWithObjectStore(missing, store, &stubObjectStore{}, logging.NewNop())
	if h := unready.HealthCheck(context.Background()); h.Ready {
		t.Fatal("expected unhealthy aggregator for missing store root")
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"collator/internal/aggregator"
	"collator/internal/jobs"
	"collator/internal/request"
	"collator/internal/testsupport"
)

func writeRequestFile(t *testing.T, dir, name string, env request.Envelope) string {
	t.Helper()
	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write request file: %v", err)
	}
	return path
}

func TestSubmitQueuesRequestThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeRequestFile(t, env.baseDir, "request.json", testsupport.NewEnvelope("job-1", request.ChunkResult{
		ChunkIndex: 1,
		Status:     "COMPLETED",
		SummaryKey: "summaries/chunk-1.txt",
	}))

	stdout, stderr, err := runCLI(t, []string{"submit", path}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("submit failed: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stdout, "queued (job-1, 1 chunks)")

	job, err := env.store.GetByJobID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != jobs.StatusPending {
		t.Fatalf("expected pending job, got %s", job.Status)
	}
}

func TestSubmitRecordsInvalidRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"job_id":"bad-job"}`), 0o644); err != nil {
		t.Fatalf("write request file: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"submit", path}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("submit returned error for recorded rejection: %v", err)
	}
	requireContains(t, stdout, "Request rejected:")
	requireContains(t, stdout, "with status Error")

	job, err := env.store.GetByJobID(context.Background(), "bad-job")
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != jobs.StatusError {
		t.Fatalf("expected errored job, got %s", job.Status)
	}
}

func TestSubmitFallsBackToStoreWhenDaemonDown(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeRequestFile(t, env.baseDir, "request.json", testsupport.NewEnvelope("job-2", request.ChunkResult{
		ChunkIndex: 1,
		Status:     "COMPLETED",
		SummaryKey: "summaries/chunk-1.txt",
	}))
	deadSocket := filepath.Join(env.baseDir, "absent.sock")

	stdout, stderr, err := runCLI(t, []string{"submit", path}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("submit without daemon failed: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stdout, "queued (job-2, 1 chunks)")

	job, err := env.store.GetByJobID(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != jobs.StatusPending {
		t.Fatalf("expected pending job, got %s", job.Status)
	}
}

func TestSubmitReadsRequestFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	raw, err := testsupport.NewEnvelope("job-stdin", request.ChunkResult{
		ChunkIndex: 1,
		Status:     "COMPLETED",
		SummaryKey: "summaries/chunk-1.txt",
	}).Encode()
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(raw))
	cmd.SetArgs([]string{"--socket", env.socketPath, "--config", env.configPath, "submit", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("submit from stdin failed: %v (stderr: %s)", err, stderr.String())
	}
	requireContains(t, stdout.String(), "queued (job-stdin, 1 chunks)")
}

func TestSubmitRejectsMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"submit", filepath.Join(env.baseDir, "absent.json")}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "read request file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestRunAggregatesRequestInProcess(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteObject(t, env.cfg.Paths.StoreRoot, "analysis-bucket", "summaries/chunk-1.txt", "First chunk summary.")
	testsupport.WriteObject(t, env.cfg.Paths.StoreRoot, "analysis-bucket", "summaries/chunk-2.txt", "Second chunk summary.")

	path := writeRequestFile(t, env.baseDir, "request.json", testsupport.NewEnvelope("batch-7",
		request.ChunkResult{ChunkIndex: 1, Status: "COMPLETED", SummaryKey: "summaries/chunk-1.txt"},
		request.ChunkResult{ChunkIndex: 2, Status: "COMPLETED", SummaryKey: "summaries/chunk-2.txt"},
	))

	stdout, stderr, err := runCLI(t, []string{"run", path}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("run failed: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stdout, "finished with status Aggregated")
	requireContains(t, stdout, "Prompt: results/batch-7/aggregated_analysis_prompt.txt")
	requireContains(t, stdout, "chunks aggregated)")

	promptPath := filepath.Join(env.cfg.Paths.StoreRoot, "analysis-bucket", "results", "batch-7", "aggregated_analysis_prompt.txt")
	body, err := os.ReadFile(promptPath)
	if err != nil {
		t.Fatalf("read stored prompt: %v", err)
	}
	text := string(body)
	requireContains(t, text, "## CHUNK 1 ANALYSIS")
	requireContains(t, text, "First chunk summary.")
	requireContains(t, text, "## CHUNK 2 ANALYSIS")
	requireContains(t, text, "Second chunk summary.")

	job, err := env.store.GetByJobID(context.Background(), "batch-7")
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != jobs.StatusAggregated {
		t.Fatalf("expected aggregated job, got %s", job.Status)
	}
	if job.ChunksAggregated != 2 {
		t.Fatalf("expected 2 aggregated chunks, got %d", job.ChunksAggregated)
	}
}

func TestRunJSONReportsOutcome(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteObject(t, env.cfg.Paths.StoreRoot, "analysis-bucket", "summaries/chunk-1.txt", "Only chunk summary.")

	path := writeRequestFile(t, env.baseDir, "request.json", testsupport.NewEnvelope("batch-8",
		request.ChunkResult{ChunkIndex: 1, Status: "COMPLETED", SummaryKey: "summaries/chunk-1.txt"},
	))

	stdout, stderr, err := runCLI(t, []string{"run", path, "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("run --json failed: %v (stderr: %s)", err, stderr)
	}

	var outcome aggregator.Outcome
	if err := json.Unmarshal([]byte(stdout), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.JobID != "batch-8" {
		t.Fatalf("unexpected job id: %q", outcome.JobID)
	}
	if outcome.ChunksAggregated != 1 || outcome.ChunksRequested != 1 {
		t.Fatalf("unexpected chunk counts: %+v", outcome)
	}
	if !outcome.CrossChunkAnalysis {
		t.Fatalf("expected cross-chunk analysis flag, got %+v", outcome)
	}
	if outcome.PromptKey != "results/batch-8/aggregated_analysis_prompt.txt" {
		t.Fatalf("unexpected prompt key: %q", outcome.PromptKey)
	}
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"job_id":"bad-run"}`), 0o644); err != nil {
		t.Fatalf("write request file: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"run", path}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "request rejected") {
		t.Fatalf("expected rejection error, got %v", err)
	}
	requireContains(t, stdout, "Recorded as job")
}

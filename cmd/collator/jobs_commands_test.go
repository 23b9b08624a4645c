package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"collator/internal/api"
	"collator/internal/jobs"
)

func TestJobsListShowsSeededJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	seedFailedJob(t, env, "job-b")

	stdout, stderr, err := runCLI(t, []string{"jobs", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list failed: %v (stderr: %s)", err, stderr)
	}

	requireContains(t, stdout, "job-a")
	requireContains(t, stdout, "job-b")
	requireContains(t, stdout, "Pending")
	requireContains(t, stdout, "Failed")
	requireContains(t, stdout, "0/1")
}

func TestJobsListJSONSortsNewestFirst(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	seedFailedJob(t, env, "job-b")

	stdout, _, err := runCLI(t, []string{"jobs", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --json failed: %v", err)
	}

	var resp api.JobListResponse
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("decode job list: %v", err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0].JobID != "job-b" {
		t.Fatalf("expected newest job first, got %q", resp.Jobs[0].JobID)
	}
}

func TestJobsListFiltersByStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	seedFailedJob(t, env, "job-b")

	stdout, _, err := runCLI(t, []string{"jobs", "list", "--status", "failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --status failed: %v", err)
	}
	requireContains(t, stdout, "job-b")
	if strings.Contains(stdout, "job-a") {
		t.Fatalf("expected job-a to be filtered out, got %q", stdout)
	}
}

func TestJobsListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"jobs", "list", "--status", "BOGUS"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown job status "BOGUS"`) {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestJobsListFallsBackToStoreWhenDaemonDown(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	deadSocket := filepath.Join(env.baseDir, "absent.sock")

	stdout, stderr, err := runCLI(t, []string{"jobs", "list"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("jobs list without daemon failed: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stdout, "job-a")
	requireContains(t, stdout, "Pending")
}

func TestJobsShowDisplaysDetail(t *testing.T) {
	env := setupCLITestEnv(t)
	job := seedFailedJob(t, env, "job-b")

	stdout, _, err := runCLI(t, []string{"jobs", "show", strconv.FormatInt(job.ID, 10)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs show failed: %v", err)
	}

	requireContains(t, stdout, "Job:")
	requireContains(t, stdout, "job-b")
	requireContains(t, stdout, "Failed")
	requireContains(t, stdout, "analysis-bucket")
	requireContains(t, stdout, "upstream timeout")
	requireContains(t, stdout, "0/1 aggregated")
}

func TestJobsShowMissingJob(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"jobs", "show", "99"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "job 99 not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestJobsShowRejectsInvalidID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"jobs", "show", "x"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `invalid job id "x"`) {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestJobsRetrySpecificJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	pending := seedPendingJob(t, env, "job-a")
	failed := seedFailedJob(t, env, "job-b")

	args := []string{
		"jobs", "retry",
		strconv.FormatInt(failed.ID, 10),
		strconv.FormatInt(pending.ID, 10),
		"99",
	}
	stdout, _, err := runCLI(t, args, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry failed: %v", err)
	}

	requireContains(t, stdout, "Job "+strconv.FormatInt(failed.ID, 10)+" reset for retry")
	requireContains(t, stdout, "Job "+strconv.FormatInt(pending.ID, 10)+" is not in a retryable state")
	requireContains(t, stdout, "Job 99 not found")

	reloaded, err := env.store.GetByID(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != jobs.StatusPending {
		t.Fatalf("expected retried job to be pending, got %s", reloaded.Status)
	}
	if reloaded.StatusMessage != "Retry requested" {
		t.Fatalf("unexpected status message: %q", reloaded.StatusMessage)
	}
}

func TestJobsRetryAllFailedJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	seedFailedJob(t, env, "job-b")

	stdout, _, err := runCLI(t, []string{"jobs", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry failed: %v", err)
	}
	requireContains(t, stdout, "Retried 1 failed jobs")
}

func TestJobsResetReturnsInterruptedJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	job := seedPendingJob(t, env, "job-a")
	if err := env.store.UpdateStatus(context.Background(), job.ID, jobs.StatusAggregating, "Aggregating 1 chunk summaries"); err != nil {
		t.Fatalf("mark aggregating: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"jobs", "reset"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs reset failed: %v", err)
	}
	requireContains(t, stdout, "Reset 1 jobs")

	reloaded, err := env.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != jobs.StatusPending {
		t.Fatalf("expected reset job to be pending, got %s", reloaded.Status)
	}
}

func TestJobsClearWithStatusFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	seedFailedJob(t, env, "job-b")

	stdout, _, err := runCLI(t, []string{"jobs", "clear", "--status", "failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear failed: %v", err)
	}
	requireContains(t, stdout, "Cleared 1 failed jobs")

	remaining, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(remaining) != 1 || remaining[0].JobID != "job-a" {
		t.Fatalf("unexpected remaining jobs: %+v", remaining)
	}
}

func TestJobsClearAllJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	seedFailedJob(t, env, "job-b")

	stdout, _, err := runCLI(t, []string{"jobs", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear failed: %v", err)
	}
	requireContains(t, stdout, "Cleared 2 jobs")

	remaining, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty store, got %d jobs", len(remaining))
	}
}

func TestJobsClearRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")

	_, _, err := runCLI(t, []string{"jobs", "clear", "--status", "BOGUS"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown job status "BOGUS"`) {
		t.Fatalf("expected unknown status error, got %v", err)
	}

	remaining, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected the typo to clear nothing, got %d jobs", len(remaining))
	}
}

func TestHealthReportsDatabaseDiagnostics(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")

	stdout, stderr, err := runCLI(t, []string{"health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("health failed: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stdout, "Database path:")
	requireContains(t, stdout, "jobs table present: yes")
	requireContains(t, stdout, "Integrity check: yes")
	requireContains(t, stdout, "Total jobs: 1")
	requireContains(t, stdout, "Pending: 1")

	// Same command against a dead socket reads the store directly.
	deadSocket := filepath.Join(env.baseDir, "absent.sock")
	stdout, _, err = runCLI(t, []string{"health"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("health without daemon failed: %v", err)
	}
	requireContains(t, stdout, "Total jobs: 1")
}

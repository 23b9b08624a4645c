package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"collator/internal/ipc"
	"collator/internal/jobs"
)

func TestStatusReportsStoppedWorkflowAndJobCounts(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")
	seedFailedJob(t, env, "job-b")

	stdout, stderr, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status failed: %v (stderr: %s)", err, stderr)
	}

	requireContains(t, stdout, "== Daemon ==")
	requireContains(t, stdout, "stopped")
	requireContains(t, stdout, "== Stages ==")
	requireContains(t, stdout, "noop")
	requireContains(t, stdout, "== Job Status ==")
	requireContains(t, stdout, "Pending")
	requireContains(t, stdout, "Failed")
}

func TestStatusJSONCarriesJobStats(t *testing.T) {
	env := setupCLITestEnv(t)
	seedPendingJob(t, env, "job-a")

	stdout, _, err := runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json failed: %v", err)
	}

	var resp ipc.StatusResponse
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if resp.Running {
		t.Fatal("expected stopped workflow in status")
	}
	if resp.JobStats[string(jobs.StatusPending)] != 1 {
		t.Fatalf("unexpected job stats: %v", resp.JobStats)
	}
}

func TestStartThenReportsAlreadyRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, stderr, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start failed: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stdout, "Daemon started")

	stdout, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	requireContains(t, stdout, "Daemon already running")
}

func TestStopWithoutDaemonReportsNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	deadSocket := filepath.Join(env.baseDir, "absent.sock")

	stdout, _, err := runCLI(t, []string{"stop"}, deadSocket, env.configPath)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	requireContains(t, stdout, "Daemon is not running")
}

func TestTestNotifyReportsMissingTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify failed: %v", err)
	}
	requireContains(t, stdout, "ntfy topic not configured")
}

func TestVersionPrintsBinaryVersion(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"version"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "collator ") {
		t.Fatalf("unexpected version output: %q", stdout)
	}
}

package ipc

import (
	"encoding/json"

	"collator/internal/api"
)

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Job mirrors the HTTP API job DTO for internal IPC callers.
type Job = api.Job

// StageHealth describes readiness of a workflow stage.
type StageHealth = api.StageHealth

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	JobStats    map[string]int `json:"job_stats"`
	LastError   string         `json:"last_error"`
	LastJob     *Job           `json:"last_job"`
	LockPath    string         `json:"lock_path"`
	JobDBPath   string         `json:"job_db_path"`
	StoreRoot   string         `json:"store_root"`
	StageHealth []StageHealth  `json:"stage_health"`
	PID         int            `json:"pid"`
}

// SubmitRequest carries a raw aggregation request payload.
type SubmitRequest struct {
	Payload json.RawMessage `json:"payload"`
}

// SubmitResponse reports the submission outcome and the recorded job.
type SubmitResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Job      Job    `json:"job"`
}

// JobListRequest filters job listing by status.
type JobListRequest struct {
	Statuses []string `json:"statuses"`
}

// JobListResponse contains job entries.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobDescribeRequest fetches a single job by id.
type JobDescribeRequest struct {
	ID int64 `json:"id"`
}

// JobDescribeResponse contains a single job entry.
type JobDescribeResponse struct {
	Job Job `json:"job"`
}

// JobClearRequest removes jobs. Empty status list means all jobs.
type JobClearRequest struct {
	Statuses []string `json:"statuses"`
}

// JobClearResponse reports number of removed entries.
type JobClearResponse struct {
	Removed int64 `json:"removed"`
}

// JobResetRequest resets in-flight jobs.
type JobResetRequest struct{}

// JobResetResponse reports number of jobs reset.
type JobResetResponse struct {
	Updated int64 `json:"updated"`
}

// JobRetryRequest retries failed jobs. Empty list means all failed jobs.
type JobRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// JobRetryResponse reports number of retried jobs.
type JobRetryResponse struct {
	Updated int64 `json:"updated"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalJobs        int      `json:"total_jobs"`
	Error            string   `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// JobHealthRequest fetches aggregate diagnostics.
type JobHealthRequest struct{}

// JobHealthResponse reports job health information.
type JobHealthResponse struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Aggregating int `json:"aggregating"`
	Aggregated  int `json:"aggregated"`
	Failed      int `json:"failed"`
	Errored     int `json:"errored"`
}

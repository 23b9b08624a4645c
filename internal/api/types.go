package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a collation job in a transport-friendly format.
type Job struct {
	ID               int64           `json:"id"`
	JobID            string          `json:"jobId"`
	Label            string          `json:"label"`
	Bucket           string          `json:"bucket"`
	OutputPath       string          `json:"outputPath"`
	Status           string          `json:"status"`
	StatusMessage    string          `json:"statusMessage"`
	ErrorMessage     string          `json:"errorMessage"`
	PromptKey        string          `json:"promptKey,omitempty"`
	ChunksTotal      int             `json:"chunksTotal"`
	ChunksAggregated int             `json:"chunksAggregated"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	UpdatedAt        string          `json:"updatedAt,omitempty"`
	LastHeartbeat    string          `json:"lastHeartbeat,omitempty"`
	Request          json.RawMessage `json:"request,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	JobStats    map[string]int `json:"jobStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	JobDBPath    string         `json:"jobDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	StoreRoot    string         `json:"storeRoot,omitempty"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// JobStatsResponse provides a normalized job stats payload.
type JobStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// SubmitResponse reports the outcome of an aggregation request submission.
// Rejected submissions still carry the recorded job so callers can surface
// the stored validation error.
type SubmitResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Job      Job    `json:"job"`
}

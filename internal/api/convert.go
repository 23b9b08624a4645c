package api

import (
	"encoding/json"
	"time"

	"collator/internal/jobs"
	"collator/internal/stage"
	"collator/internal/workflow"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}

	dto := Job{
		ID:               job.ID,
		JobID:            job.JobID,
		Label:            job.Label,
		Bucket:           job.Bucket,
		OutputPath:       job.OutputPath,
		Status:           string(job.Status),
		StatusMessage:    job.StatusMessage,
		ErrorMessage:     job.ErrorMessage,
		PromptKey:        job.PromptKey,
		ChunksTotal:      job.ChunksTotal,
		ChunksAggregated: job.ChunksAggregated,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if job.LastHeartbeat != nil && !job.LastHeartbeat.IsZero() {
		dto.LastHeartbeat = job.LastHeartbeat.UTC().Format(dateTimeFormat)
	}
	if raw := job.RequestJSON; raw != "" {
		dto.Request = json.RawMessage(raw)
	}
	return dto
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(records []*jobs.Job) []Job {
	if len(records) == 0 {
		return nil
	}
	out := make([]Job, 0, len(records))
	for _, record := range records {
		out = append(out, FromJob(record))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		JobStats:    MergeJobStats(summary.JobStats),
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		wf.LastJob = &last
	}
	return wf
}

// MergeJobStats produces a string-keyed representation of job stats.
func MergeJobStats(stats map[jobs.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice wraps stage health in the list form used on the wire.
func StageHealthSlice(health stage.Health) []StageHealth {
	if health.Name == "" {
		return nil
	}
	return []StageHealth{{Name: health.Name, Ready: health.Ready, Detail: health.Detail}}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal job records into transport-friendly DTOs
// that dashboards and other consumers can render without coupling to internal
// types.
//
// # Key Types
//
// Job: transport representation of a collation job with status, chunk counts,
// and the stored prompt object key.
//
// WorkflowStatus: daemon running state, job stats, stage health, and last job.
//
// DaemonStatus: aggregated runtime information including lock, database, and
// store paths.
//
// # Converters
//
// FromJob: jobs.Job -> Job with RFC3339 timestamps and the raw submit payload
// passed through as json.RawMessage to avoid double-encoding.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Job
// statuses are exposed as the uppercase strings recorded in the job store so
// downstream pollers see the same values the status table holds. Timestamps
// use RFC3339 with milliseconds.
package api

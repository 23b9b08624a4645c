package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a collation job.
//
// Statuses are stored uppercase, matching the values upstream pipeline stages
// write into shared job records.
type Status string

const (
	// StatusPending marks a job waiting for the aggregation stage.
	StatusPending Status = "PENDING"
	// StatusAggregating marks a job whose summaries are being collated.
	StatusAggregating Status = "AGGREGATING"
	// StatusAggregated marks a job whose analysis prompt has been stored.
	StatusAggregated Status = "AGGREGATED"
	// StatusFailed marks a job that crashed mid-aggregation; retryable.
	StatusFailed Status = "FAILED"
	// StatusError marks a job whose request was invalid on submission; terminal.
	StatusError Status = "ERROR"
)

var allStatuses = []Status{
	StatusPending,
	StatusAggregating,
	StatusAggregated,
	StatusFailed,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// HealthSummary describes aggregated job counts per key lifecycle state.
type HealthSummary struct {
	Total       int
	Pending     int
	Aggregating int
	Aggregated  int
	Failed      int
	Errored     int
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// Job represents a collation job persisted in SQLite.
type Job struct {
	ID               int64
	JobID            string
	Label            string
	Bucket           string
	OutputPath       string
	RequestJSON      string
	Status           Status
	StatusMessage    string
	ErrorMessage     string
	PromptKey        string
	ChunksTotal      int
	ChunksAggregated int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastHeartbeat    *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the job is mid-aggregation.
func (j Job) IsProcessing() bool {
	return j.Status == StatusAggregating
}

// IsTerminal returns true when the job has reached a state the workflow will
// never advance on its own. Failed jobs are not terminal; a retry returns
// them to pending.
func (j Job) IsTerminal() bool {
	return j.Status == StatusAggregated || j.Status == StatusError
}

// SetAggregating marks the job as in-flight with the given status message and
// clears stale error state from a previous attempt.
func (j *Job) SetAggregating(message string) {
	j.Status = StatusAggregating
	j.StatusMessage = message
	j.ErrorMessage = ""
}

// SetAggregated records a successful aggregation outcome.
func (j *Job) SetAggregated(promptKey string, chunksAggregated int, message string) {
	j.Status = StatusAggregated
	j.PromptKey = promptKey
	j.ChunksAggregated = chunksAggregated
	j.StatusMessage = message
	j.ErrorMessage = ""
	j.LastHeartbeat = nil
}

// SetFailed marks the job as failed with the given error message.
// Clears the heartbeat so the job is not mistaken for an in-flight one.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.StatusMessage = message
	j.ErrorMessage = message
	j.LastHeartbeat = nil
}

package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MissingParametersMessage is the status message recorded for submissions
// that omit required fields. The text is part of the upstream contract.
const MissingParametersMessage = "Missing required parameters"

// ErrMissingParameters is returned when a submission omits required fields.
var ErrMissingParameters = errors.New("missing required parameters")

// ChunkStatusError marks a chunk result the upstream stage could not produce.
// Chunks carrying it are skipped during collation.
const ChunkStatusError = "error"

// ChunkResult references one per-chunk summary produced by the upstream
// analysis stage.
type ChunkResult struct {
	ChunkIndex int    `json:"chunk_index"`
	Status     string `json:"status,omitempty"`
	SummaryKey string `json:"summary_key,omitempty"`
}

// Failed reports whether the upstream stage marked this chunk as failed.
func (c ChunkResult) Failed() bool {
	return strings.EqualFold(strings.TrimSpace(c.Status), ChunkStatusError)
}

// Envelope is an aggregation request: collate the listed chunk summaries from
// Bucket into a single analysis prompt stored under OutputPath.
type Envelope struct {
	JobID        string        `json:"job_id"`
	Bucket       string        `json:"bucket_name"`
	OutputPath   string        `json:"output_path"`
	ChunkResults []ChunkResult `json:"chunk_results,omitempty"`
}

// UnmarshalJSON decodes the envelope, accepting "bucket" as an alias for the
// canonical "bucket_name" key.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type wire struct {
		JobID        string        `json:"job_id"`
		BucketName   string        `json:"bucket_name"`
		Bucket       string        `json:"bucket"`
		OutputPath   string        `json:"output_path"`
		ChunkResults []ChunkResult `json:"chunk_results"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.JobID = w.JobID
	e.Bucket = w.BucketName
	if e.Bucket == "" {
		e.Bucket = w.Bucket
	}
	e.OutputPath = w.OutputPath
	e.ChunkResults = w.ChunkResults
	return nil
}

// Parse decodes a submission payload, normalizes it, and validates required
// fields. Chunk results keep their upstream order.
func Parse(raw []byte) (Envelope, error) {
	var env Envelope
	if len(raw) == 0 {
		return Envelope{}, fmt.Errorf("empty request payload")
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode request: %w", err)
	}
	env.Normalize()
	if err := env.Validate(); err != nil {
		return env, err
	}
	return env, nil
}

// Normalize trims whitespace from fields and strips any trailing slash from
// the output prefix so key joins never produce doubled separators.
func (e *Envelope) Normalize() {
	e.JobID = strings.TrimSpace(e.JobID)
	e.Bucket = strings.TrimSpace(e.Bucket)
	e.OutputPath = strings.TrimRight(strings.TrimSpace(e.OutputPath), "/")
	for i := range e.ChunkResults {
		e.ChunkResults[i].Status = strings.TrimSpace(e.ChunkResults[i].Status)
		e.ChunkResults[i].SummaryKey = strings.TrimSpace(e.ChunkResults[i].SummaryKey)
	}
}

// Validate checks that the job ID, bucket, and output path are present. An
// empty chunk result list is allowed; the job then produces a prompt with no
// chunk sections.
func (e Envelope) Validate() error {
	var missing []string
	if e.JobID == "" {
		missing = append(missing, "job_id")
	}
	if e.Bucket == "" {
		missing = append(missing, "bucket_name")
	}
	if e.OutputPath == "" {
		missing = append(missing, "output_path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingParameters, strings.Join(missing, ", "))
	}
	return nil
}

// Encode serialises the envelope to JSON for persistence.
func (e Envelope) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Clone returns a deep copy so callers can mutate chunk results safely.
func (e Envelope) Clone() Envelope {
	cp := e
	cp.ChunkResults = slices.Clone(e.ChunkResults)
	return cp
}

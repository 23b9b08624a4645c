package aggregator

import "collator/internal/jobs"

// Outcome summarizes a finished aggregation for direct callers such as the
// one-shot CLI. JSON field names follow the result payload contract of the
// surrounding pipeline.
type Outcome struct {
	JobID              string `json:"job_id"`
	Bucket             string `json:"bucket_name"`
	PromptKey          string `json:"full_prompt_key"`
	OutputPath         string `json:"output_path"`
	ChunksRequested    int    `json:"chunks_processed"`
	ChunksAggregated   int    `json:"chunks_aggregated"`
	CrossChunkAnalysis bool   `json:"cross_chunk_analysis"`
	Message            string `json:"message"`
}

// OutcomeFromJob derives the caller-facing result from a job record.
func OutcomeFromJob(job *jobs.Job) Outcome {
	if job == nil {
		return Outcome{}
	}
	return Outcome{
		JobID:              job.JobID,
		Bucket:             job.Bucket,
		PromptKey:          job.PromptKey,
		OutputPath:         job.OutputPath,
		ChunksRequested:    job.ChunksTotal,
		ChunksAggregated:   job.ChunksAggregated,
		CrossChunkAnalysis: job.Status == jobs.StatusAggregated,
		Message:            job.StatusMessage,
	}
}

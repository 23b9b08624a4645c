// Package request defines the aggregation request envelope submitted by
// upstream pipeline stages.
//
// The Envelope names the job, the storage bucket holding per-chunk summaries,
// the output prefix for the collated prompt, and the list of chunk results to
// collate. Parse decodes and validates a submission in one step; payloads that
// fail validation are recorded as terminal ERROR jobs rather than queued.
//
// Wire form is JSON with snake_case keys matching what upstream stages emit.
// The bucket travels as "bucket_name"; a bare "bucket" key is accepted for
// hand-written submissions.
package request

// Package aggregator implements the collation stage. It gathers the
// per-chunk analysis summaries referenced by a job's request from object
// storage, concatenates them into a single cross-chunk analysis prompt, and
// stores the prompt where the downstream analysis service picks it up.
package aggregator

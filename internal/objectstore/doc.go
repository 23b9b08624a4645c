// Package objectstore abstracts the blob store holding per-chunk summaries
// and collated analysis prompts.
//
// The Store interface mirrors the small slice of a bucket API the pipeline
// needs: Get, Put, and Stat, keyed by bucket and object key. The shipped
// implementation backs buckets with directories under a configured root so a
// single host runs the whole pipeline without external storage. Keys use
// forward slashes regardless of platform; keys or bucket names that would
// escape the store root are rejected.
package objectstore

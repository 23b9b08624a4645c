// Package workflow advances queued aggregation jobs through the collation
// stage.
//
// The Manager polls the job store, reclaims stale work via heartbeats, and
// feeds PENDING jobs into the aggregation handler one at a time while
// capturing progress and failure metadata. It also aggregates job stats,
// calls the stage health check, and emits job-level notifications when
// aggregation starts or completes.
//
// A single job is in flight per manager. While a job executes, a heartbeat
// goroutine refreshes its last_heartbeat column so a crashed daemon leaves a
// detectable trail; the poll loop reclaims any job whose heartbeat has gone
// stale back to PENDING before fetching new work.
package workflow

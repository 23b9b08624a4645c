// Package daemon coordinates the long-running collator process and system
// integration points.
//
// It wires configuration, job storage, the workflow manager, and the intake
// surfaces into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes job maintenance helpers, accepts
// aggregation request submissions, recovers work orphaned by earlier runs,
// and serves the optional HTTP status API.
//
// Keep orchestration logic here: the aggregation stage itself lives in its
// own package while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon

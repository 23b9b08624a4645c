// Package jobs persists collation jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, embedded migrations, stats queries,
// heartbeat tracking, stuck-job recovery, and the status transitions the
// workflow manager persists. Jobs capture the original request envelope, chunk
// counts, and the stored prompt key so status surfaces can report progress
// without re-reading object storage.
//
// The database is treated as transient coordination state for in-flight jobs
// rather than a long-term archive. Schema changes ship as new files under
// migrations/; each file is applied once and recorded in schema_migrations.
//
// Treat this package as the single source of truth for job semantics; when you
// add new statuses or fields, add a migration and update the scan helpers.
package jobs

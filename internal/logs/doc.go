// Package logs provides file tailing and offset helpers shared by the CLI and
// daemon diagnostics.
//
// It reads log files with bounded memory usage, supports negative offsets for
// "tail last N lines" requests, and powers follow-mode updates for
// `collator logs --follow`. The same semantics back the IPC LogTail operation,
// so the CLI sees identical output whether it reaches the daemon or falls back
// to reading the log file directly.
package logs

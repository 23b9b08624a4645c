// Package spool ingests aggregation request files dropped into the spool
// directory. Files matching *.json are debounced until writes settle, then
// read and handed to the daemon for enqueueing; originals are archived under
// processed/ or failed/ with a timestamp prefix.
//
// The watcher is optional: daemon boot skips construction entirely when
// paths.spool_dir is empty.
package spool

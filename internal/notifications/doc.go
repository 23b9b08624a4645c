// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. One method per workflow milestone keeps messages consistent and
// spares callers the HTTP glue; the queued/completion/error toggles in the
// config suppress individual event classes without touching call sites.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications

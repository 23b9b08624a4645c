// Package services defines shared utilities consumed by the aggregation stage
// and the surfaces around it.
//
// Key responsibilities:
//   - Context helpers that stamp job identifiers, stage names, and request
//     correlation IDs for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent job statuses (failed vs error).
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services

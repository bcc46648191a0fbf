// Package services defines shared utilities consumed by the pipeline stages
// and the workflow manager.
//
// Key responsibilities:
//   - Context helpers that stamp item identifiers, stage names, attempt
//     numbers, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     pipeline stage that produced them.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services

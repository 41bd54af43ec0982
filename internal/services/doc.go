// Package services defines shared utilities consumed by the batch runner and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, volume paths, and batch
//     positions for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across components.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services

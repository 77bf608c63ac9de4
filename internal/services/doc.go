// Package services defines shared utilities consumed by the pipeline stages
// and the external API clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and season keys for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that separate fatal input
//     problems from throttling and per-item failures.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services

// Package errors defines the error taxonomy of the ingestion core.
//
// Every stage of the pipeline fails with a sentinel from this package, or
// an error wrapping one. Errors carry a classification (transient, invalid,
// fatal) that drives retry decisions in the store client and respawn
// decisions in the worker pool:
//
//   - Transient: worth retrying (timeouts, store unavailability).
//   - Invalid: the input is wrong; retrying cannot help (schema violations,
//     referential integrity failures, illegal lifecycle transitions).
//   - Fatal: the component is broken and must not be reused (closed
//     channels, oversized frames, bad configuration).
//
// The coordinator additionally tags every failure with its originating
// stage through AtStage/FailedStage, so outer layers can report which of
// parse, validate, reason, generate, or store failed without parsing error
// strings.
package errors

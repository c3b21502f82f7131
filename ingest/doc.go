// Package ingest composes the pooled pipeline stages into one ingestion
// operation.
//
// A Coordinator runs the fixed sequence read, parse, validate, reason,
// generate, store over one export. Parse, reason and generate execute in
// external worker processes reached through checked-out pool channels;
// validation is a pure in-process data check and the store hand-off is the
// final network call. Failures abort on first occurrence, tagged with the
// stage that produced them, and nothing flows downstream of a failed stage.
// Worker availability retry lives in the pools; failed business outcomes
// are never retried anywhere.
//
// Handler is the other half of the same protocol: the worker-side dispatch
// that cmd/anamnesis-worker (and in-memory test workers) run.
package ingest

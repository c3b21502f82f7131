// Package metric manages Prometheus metrics for the ingestion core.
//
// A Registry owns a dedicated prometheus.Registry seeded with the core
// ingestion metrics (ingestion outcomes, stage latency, worker respawns,
// emitted triples) and the Go runtime collectors. Components register
// additional collectors under a (component, metric) key; duplicate
// registrations are rejected instead of silently double-counting.
package metric

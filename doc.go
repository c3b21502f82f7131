// Package anamnesis extracts structured knowledge from exported chat
// transcripts.
//
// Heterogeneous export formats are parsed into one canonical conversation
// model, validated for referential integrity, enriched with lifecycle and
// fuzzy membership inference, rendered as RDF triples, and handed to an
// external SPARQL triplestore. The orchestration core binds these
// independently failing stages across process boundaries: framed
// multiplexed IPC to external workers, bounded pools with crash recovery,
// and a strictly sequential per-ingestion pipeline.
//
// Package layout:
//
//	message/    canonical conversation, message, artifact model
//	vocabulary/ ontology IRIs and short-name expansion
//	parser/     export format detection and decoding
//	reasoning/  lifecycle, membership and contamination logic
//	rdf/        deterministic triple generation and N-Triples codec
//	worker/     framed channel, worker pool, process spawner
//	ingest/     pipeline coordinator and worker-side action handler
//	store/      SPARQL triplestore client
//	errors/     sentinel errors and classification
//	metric/     prometheus registry and core metrics
//	config/     layered YAML plus environment configuration
//	cmd/        the ingestion CLI and the worker binary
package anamnesis

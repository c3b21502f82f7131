// Package store is the client for the remote SPARQL triplestore.
//
// The store is an opaque external collaborator reached through exactly two
// operations: Insert posts N-Triples via the SPARQL 1.1 Graph Store
// protocol and Query posts SPARQL and decodes JSON results. Inserts are
// rate limited and retried on transient availability failures only; the
// retry here is availability retry, never business retry, which belongs to
// no layer of this core.
package store

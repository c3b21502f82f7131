// Package rdf maps the canonical conversation model to RDF triples and
// serializes them as N-Triples.
//
// Generation is deterministic: triples are emitted in a fixed order
// (conversation, messages in sequence, artifacts in sequence, memberships
// in sorted category order) so two invocations on the same input produce
// byte-identical output. The serializer expands short vocabulary names to
// full IRIs and escapes literal content; the parser reverses both, which
// the tests use to prove the round trip.
package rdf

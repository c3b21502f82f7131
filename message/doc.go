// Package message defines the canonical conversation model every export
// format parses into: Conversation, Message, Artifact, lifecycle states,
// and project memberships.
//
// The model is deliberately free of external dependencies. Parsers build
// values of these types, Validate accumulates every invariant violation in
// one pass, and downstream stages (reasoning, RDF generation) treat
// validated values as immutable.
//
// # Variants
//
// Speaker and ArtifactType are tagged variants in the Go style: a Kind
// discriminator plus the fields each alternative needs, with constructor
// functions (HumanSpeaker, LLMSpeaker, CodeArtifact, ...) so callers never
// assemble inconsistent combinations by hand.
//
// # Lifecycle
//
// LifecycleState carries the fixed legal-transition table:
//
//	Created   -> Modified, Removed
//	Modified  -> Modified, Evaluated, Removed
//	Evaluated -> Removed
//	Removed   -> (terminal)
//
// Histories are ordered []StateEvent; legality is a property of consecutive
// pairs and is checked by the reasoning package.
package message

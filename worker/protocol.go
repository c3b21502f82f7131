package worker

import (
	"github.com/hyperpolymath/anamnesis/message"
	"github.com/hyperpolymath/anamnesis/reasoning"
)

// Stage-specific payload contracts carried inside Call/Response envelopes.
// Both sides of the wire share these types: the coordinator marshals
// requests, the worker process unmarshals them and answers with the
// matching result.

// ParseRequest asks a parse worker to decode one raw export.
type ParseRequest struct {
	Content []byte `json:"content"`
	// Format is an optional explicit hint; empty means detect.
	Format string `json:"format,omitempty"`
}

// ParseResult is the parse worker's answer.
type ParseResult struct {
	Format       string                `json:"format"`
	Conversation *message.Conversation `json:"conversation"`
}

// ReasonRequest asks a reason worker for lifecycle validation and
// membership inference over one parsed conversation.
type ReasonRequest struct {
	Conversation *message.Conversation           `json:"conversation"`
	Memberships  []message.ProjectMembership     `json:"memberships,omitempty"`
	Histories    map[string][]message.StateEvent `json:"histories,omitempty"`
}

// ReasonResult is the reason worker's answer.
type ReasonResult struct {
	Inferences *reasoning.Inferences `json:"inferences"`
}

// GenerateRequest asks a generate worker for the conversation's triples.
type GenerateRequest struct {
	Conversation *message.Conversation `json:"conversation"`
	Inferences   *reasoning.Inferences `json:"inferences"`
}

// GenerateResult is the generate worker's answer: serialized N-Triples
// ready for the store.
type GenerateResult struct {
	NTriples string `json:"ntriples"`
	Count    int    `json:"count"`
}

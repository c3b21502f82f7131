package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/hyperpolymath/anamnesis/parser"
	"github.com/hyperpolymath/anamnesis/rdf"
	"github.com/hyperpolymath/anamnesis/reasoning"
	"github.com/hyperpolymath/anamnesis/worker"
)

// Handler executes worker actions in-process over the leaf packages. It is
// the worker binary's core; tests run the same handler behind in-memory
// pipes instead of real processes.
type Handler struct {
	parser    *parser.Parser
	generator *rdf.Generator
}

// NewHandler builds a handler with the production parser and generator.
func NewHandler() *Handler {
	return &Handler{
		parser:    parser.NewParser(),
		generator: rdf.NewGenerator(),
	}
}

// Handle dispatches one call to its action. It never panics on bad
// payloads; failures travel back as response errors.
func (h *Handler) Handle(call worker.Call) worker.Response {
	switch call.Action {
	case worker.ActionPing:
		return worker.Response{}
	case worker.ActionParse:
		return h.handleParse(call.Payload)
	case worker.ActionReason:
		return h.handleReason(call.Payload)
	case worker.ActionGenerate:
		return h.handleGenerate(call.Payload)
	default:
		return worker.Response{Error: fmt.Sprintf("unsupported action %q", call.Action)}
	}
}

func (h *Handler) handleParse(payload json.RawMessage) worker.Response {
	var req worker.ParseRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fail(err)
	}

	format := parser.Format(req.Format)
	if format == parser.FormatUnknown {
		detected, err := h.parser.Detect(req.Content)
		if err != nil {
			return fail(err)
		}
		format = detected
	}

	conv, err := h.parser.Parse(req.Content, format)
	if err != nil {
		return fail(err)
	}
	return ok(worker.ParseResult{Format: string(format), Conversation: conv})
}

func (h *Handler) handleReason(payload json.RawMessage) worker.Response {
	var req worker.ReasonRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fail(err)
	}
	if req.Conversation == nil {
		return fail(fmt.Errorf("reason request carries no conversation"))
	}

	inferences, err := reasoning.Infer(req.Conversation, req.Memberships, req.Histories)
	if err != nil {
		return fail(err)
	}
	return ok(worker.ReasonResult{Inferences: inferences})
}

func (h *Handler) handleGenerate(payload json.RawMessage) worker.Response {
	var req worker.GenerateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fail(err)
	}
	if req.Conversation == nil {
		return fail(fmt.Errorf("generate request carries no conversation"))
	}

	triples, err := h.generator.Generate(req.Conversation, req.Inferences)
	if err != nil {
		return fail(err)
	}
	return ok(worker.GenerateResult{
		NTriples: rdf.ToNTriples(triples),
		Count:    len(triples),
	})
}

func ok(result any) worker.Response {
	raw, err := json.Marshal(result)
	if err != nil {
		return fail(err)
	}
	return worker.Response{Result: raw}
}

func fail(err error) worker.Response {
	return worker.Response{Error: err.Error()}
}

package worker

import (
	"encoding/json"
	"fmt"

	"github.com/hyperpolymath/anamnesis/errors"
)

// Action identifies what a worker is being asked to do. The set is closed:
// NewCall rejects anything outside it, so an unsupported action never
// reaches the wire.
type Action string

const (
	// ActionParse asks the worker to decode a raw export into the
	// canonical conversation model.
	ActionParse Action = "parse"

	// ActionReason asks the worker to run lifecycle and membership
	// inference over a parsed conversation.
	ActionReason Action = "reason"

	// ActionGenerate asks the worker to emit RDF triples for a
	// conversation plus its inferences.
	ActionGenerate Action = "generate"

	// ActionPing is a health probe; the worker echoes an empty result.
	ActionPing Action = "ping"
)

// IsValid reports whether the action belongs to the closed set.
func (a Action) IsValid() bool {
	switch a {
	case ActionParse, ActionReason, ActionGenerate, ActionPing:
		return true
	}
	return false
}

// Call is the request envelope framed onto a channel. The correlation ID is
// assigned by the channel at submit time and is unique for the channel's
// lifetime.
type Call struct {
	ID      uint64          `json:"id"`
	Action  Action          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the reply envelope. Exactly one of Result and Error carries
// the outcome; ID matches the originating Call.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NewCall builds a call envelope with the correlation ID unassigned.
// Validation happens here so malformed actions are impossible to submit.
func NewCall(action Action, payload json.RawMessage) (Call, error) {
	if !action.IsValid() {
		return Call{}, errors.WrapInvalid(
			fmt.Errorf("unknown action %q", action),
			"Envelope", "NewCall", "action validation")
	}
	return Call{Action: action, Payload: payload}, nil
}

// Err converts a worker-reported failure into an error, or nil when the
// response succeeded. This is the worker's business outcome, distinct from
// transport failures which Submit reports directly.
func (r Response) Err() error {
	if r.Error == "" {
		return nil
	}
	return fmt.Errorf("worker: %s", r.Error)
}

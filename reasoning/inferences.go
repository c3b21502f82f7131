package reasoning

import (
	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

// Inferences is the reasoning stage's output for one conversation: the
// inputs the RDF generator needs beyond the conversation itself.
type Inferences struct {
	Memberships []message.ProjectMembership `json:"memberships,omitempty"`
	Normalized  Normalized                  `json:"normalized"`
	Risk        float64                     `json:"risk"`
}

// Infer runs the per-conversation reasoning pass: lifecycle validation for
// every artifact history, membership normalization, and contamination risk.
// Histories map artifact ids to their ordered state events; conversations
// whose exports carry no explicit history get the single-event history
// implied by the artifact's final state, which is trivially valid.
func Infer(
	conv *message.Conversation,
	memberships []message.ProjectMembership,
	histories map[string][]message.StateEvent,
) (*Inferences, error) {
	if err := validateMemberships(memberships); err != nil {
		return nil, err
	}

	for _, a := range conv.Artifacts {
		events, ok := histories[a.ID]
		if !ok {
			continue
		}
		if err := ValidateLifecycle(events); err != nil {
			return nil, errors.Wrap(err, "Reasoning", "Infer", "lifecycle validation for artifact "+a.ID)
		}
	}

	return &Inferences{
		Memberships: memberships,
		Normalized:  NormalizeMembership(memberships),
		Risk:        ContaminationRisk(memberships),
	}, nil
}

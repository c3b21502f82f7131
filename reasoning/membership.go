package reasoning

import (
	"fmt"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

// Normalized is the result of fuzzy membership normalization for one
// conversation. When the total raw score is zero, Uncategorized is true and
// Scores is empty; this is an explicit outcome, not a division error.
type Normalized struct {
	Scores        map[string]float64 `json:"scores"`
	Uncategorized bool               `json:"uncategorized"`
}

// NormalizeMembership divides each category's raw score by the
// conversation's total raw score, so the normalized scores sum to 1.0.
// Multiple memberships in the same category accumulate before normalizing.
func NormalizeMembership(memberships []message.ProjectMembership) Normalized {
	raw := make(map[string]float64)
	total := 0.0
	for _, m := range memberships {
		w := m.Type.Weight()
		raw[m.Category] += w
		total += w
	}

	if total == 0 {
		return Normalized{Uncategorized: true}
	}

	scores := make(map[string]float64, len(raw))
	for category, score := range raw {
		scores[category] = score / total
	}
	return Normalized{Scores: scores}
}

// validateMemberships rejects membership sets whose types fall outside the
// closed primary/secondary/tangential set.
func validateMemberships(memberships []message.ProjectMembership) error {
	for _, m := range memberships {
		switch m.Type {
		case message.MembershipPrimary, message.MembershipSecondary, message.MembershipTangential:
		default:
			return errors.WrapInvalid(
				fmt.Errorf("%w: unknown membership type %q for category %q",
					errors.ErrMalformedRuleSet, m.Type, m.Category),
				"Reasoning", "validateMemberships", "membership type check")
		}
		if m.Category == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: membership with empty category", errors.ErrMalformedRuleSet),
				"Reasoning", "validateMemberships", "membership category check")
		}
	}
	return nil
}

// ContaminationRisk is the fraction of a conversation's category
// memberships that are not its primary category, in [0,1]. A conversation
// with only primary memberships (or none at all) carries zero risk.
func ContaminationRisk(memberships []message.ProjectMembership) float64 {
	if len(memberships) == 0 {
		return 0.0
	}
	nonPrimary := 0
	for _, m := range memberships {
		if m.Type != message.MembershipPrimary {
			nonPrimary++
		}
	}
	return float64(nonPrimary) / float64(len(memberships))
}

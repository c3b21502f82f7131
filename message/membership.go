package message

// MembershipType grades how strongly a conversation belongs to a project
// category. Each type carries a fixed fuzzy weight.
type MembershipType string

const (
	// MembershipPrimary is the category the conversation is mainly about.
	MembershipPrimary MembershipType = "primary"
	// MembershipSecondary is a substantial but not dominant category.
	MembershipSecondary MembershipType = "secondary"
	// MembershipTangential is a category touched only in passing.
	MembershipTangential MembershipType = "tangential"
)

// Weight returns the fuzzy score contributed by this membership type.
// Unknown types weigh zero so they drop out of normalization.
func (m MembershipType) Weight() float64 {
	switch m {
	case MembershipPrimary:
		return 1.0
	case MembershipSecondary:
		return 0.6
	case MembershipTangential:
		return 0.3
	default:
		return 0.0
	}
}

// ProjectMembership assigns a conversation to one project category with a
// graded strength. A conversation's full categorization is a slice of these;
// normalization divides each weight by the conversation's total.
type ProjectMembership struct {
	Category string         `json:"category"`
	Type     MembershipType `json:"type"`
}

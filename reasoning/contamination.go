package reasoning

import "github.com/hyperpolymath/anamnesis/message"

// Profile is the slice of a conversation the contamination logic needs:
// its id, its category memberships, and the artifacts it references.
type Profile struct {
	ID          string                      `json:"id"`
	Memberships []message.ProjectMembership `json:"memberships"`
	ArtifactIDs []string                    `json:"artifact_ids"`
}

// primaryCategories returns the set of categories this profile holds a
// primary membership in.
func (p Profile) primaryCategories() map[string]bool {
	primaries := make(map[string]bool)
	for _, m := range p.Memberships {
		if m.Type == message.MembershipPrimary {
			primaries[m.Category] = true
		}
	}
	return primaries
}

// Contaminates reports whether two conversations cross-contaminate: both
// hold primary memberships in distinct categories, and both reference at
// least one common artifact.
func Contaminates(a, b Profile) bool {
	aPrimaries := a.primaryCategories()
	bPrimaries := b.primaryCategories()
	if len(aPrimaries) == 0 || len(bPrimaries) == 0 {
		return false
	}

	// Identical primary sets mean the sharing is within one project, not
	// contamination across projects.
	distinct := false
	for cat := range aPrimaries {
		if !bPrimaries[cat] {
			distinct = true
			break
		}
	}
	if !distinct {
		for cat := range bPrimaries {
			if !aPrimaries[cat] {
				distinct = true
				break
			}
		}
	}
	if !distinct {
		return false
	}

	shared := make(map[string]bool, len(a.ArtifactIDs))
	for _, id := range a.ArtifactIDs {
		shared[id] = true
	}
	for _, id := range b.ArtifactIDs {
		if shared[id] {
			return true
		}
	}
	return false
}

// ContaminationIndex is an explicit undirected edge index over conversation
// profiles. Closures run as iterative fixed-point expansion over this index
// rather than recursive traversal, which keeps termination obvious on
// cyclic graphs.
type ContaminationIndex struct {
	profiles map[string]Profile
	edges    map[string][]string
}

// NewContaminationIndex builds the pairwise contamination edge index for a
// set of conversation profiles.
func NewContaminationIndex(profiles []Profile) *ContaminationIndex {
	idx := &ContaminationIndex{
		profiles: make(map[string]Profile, len(profiles)),
		edges:    make(map[string][]string),
	}
	for _, p := range profiles {
		idx.profiles[p.ID] = p
	}
	for i := 0; i < len(profiles); i++ {
		for j := i + 1; j < len(profiles); j++ {
			if Contaminates(profiles[i], profiles[j]) {
				idx.edges[profiles[i].ID] = append(idx.edges[profiles[i].ID], profiles[j].ID)
				idx.edges[profiles[j].ID] = append(idx.edges[profiles[j].ID], profiles[i].ID)
			}
		}
	}
	return idx
}

// Spread computes the transitive contamination closure from one
// conversation: every conversation reachable through contamination edges,
// deduplicated, excluding the start itself.
func (idx *ContaminationIndex) Spread(conversationID string) map[string]Profile {
	reached := make(map[string]Profile)
	visited := map[string]bool{conversationID: true}
	frontier := []string{conversationID}

	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, id := range frontier {
			for _, neighbor := range idx.edges[id] {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				reached[neighbor] = idx.profiles[neighbor]
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return reached
}

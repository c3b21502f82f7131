package reasoning

// Fragment identifies one addressable piece of a conversation: a message or
// an artifact.
type Fragment struct {
	Conversation string `json:"conversation"`
	ID           string `json:"id"`
}

// RefEdge is one directed reference between fragments (an artifact
// mentioning a message, a message citing another conversation's artifact).
type RefEdge struct {
	From Fragment `json:"from"`
	To   Fragment `json:"to"`
}

// LinkIndex is an explicit directed edge index over fragments. Like the
// contamination index, closure runs by iterative fixed point so cyclic
// reference graphs terminate without shared visited state.
type LinkIndex struct {
	out map[Fragment][]Fragment
}

// NewLinkIndex builds a directed index from reference edges
func NewLinkIndex(edges []RefEdge) *LinkIndex {
	idx := &LinkIndex{out: make(map[Fragment][]Fragment)}
	for _, e := range edges {
		idx.out[e.From] = append(idx.out[e.From], e.To)
	}
	return idx
}

// Linked returns every fragment transitively reachable from the start
// fragment by following reference edges, deduplicated, excluding the start.
func (idx *LinkIndex) Linked(start Fragment) map[Fragment]bool {
	reached := make(map[Fragment]bool)
	visited := map[Fragment]bool{start: true}
	frontier := []Fragment{start}

	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, f := range frontier {
			for _, target := range idx.out[f] {
				if visited[target] {
					continue
				}
				visited[target] = true
				reached[target] = true
				next = append(next, target)
			}
		}
		frontier = next
	}
	return reached
}

// CrossConversationRefs filters a reference edge list down to the edges
// whose endpoints belong to different conversations.
func CrossConversationRefs(edges []RefEdge) []RefEdge {
	var crossing []RefEdge
	for _, e := range edges {
		if e.From.Conversation != e.To.Conversation {
			crossing = append(crossing, e)
		}
	}
	return crossing
}

package message

// Artifact is a work product discussed in a conversation: a code block, a
// document, a configuration snippet. Artifacts reference the messages that
// created and modified them; validation checks those references resolve.
type Artifact struct {
	// ID is non-empty. Detected artifacts get deterministic synthetic ids
	// derived from (message id, detection order).
	ID string `json:"id"`

	// Name is an optional human-readable label.
	Name string `json:"name,omitempty"`

	// Type classifies the artifact.
	Type ArtifactType `json:"type"`

	// Content is the artifact body.
	Content string `json:"content"`

	// CreatedIn references the message that introduced the artifact.
	// Must resolve to an existing message id.
	CreatedIn string `json:"created_in"`

	// ModifiedIn references the messages that changed the artifact.
	// Every entry must resolve to an existing message id.
	ModifiedIn []string `json:"modified_in,omitempty"`

	// State is the artifact's lifecycle state at the end of the conversation.
	State LifecycleState `json:"state"`
}

// ArtifactKind discriminates the ArtifactType variant.
type ArtifactKind string

const (
	// ArtifactCode is source code; Language carries the language tag.
	ArtifactCode ArtifactKind = "code"
	// ArtifactDocumentation is prose documentation.
	ArtifactDocumentation ArtifactKind = "documentation"
	// ArtifactConfiguration is configuration data.
	ArtifactConfiguration ArtifactKind = "configuration"
	// ArtifactOther covers everything else; Tag carries the source label.
	ArtifactOther ArtifactKind = "other"
)

// ArtifactType is the tagged variant Code{language} | Documentation |
// Configuration | Other{tag}.
type ArtifactType struct {
	Kind ArtifactKind `json:"kind"`

	// Language is set for code artifacts (may be empty when the source
	// fence carried no language tag).
	Language string `json:"language,omitempty"`

	// Tag is set for Other artifacts.
	Tag string `json:"tag,omitempty"`
}

// CodeArtifact constructs a code artifact type
func CodeArtifact(language string) ArtifactType {
	return ArtifactType{Kind: ArtifactCode, Language: language}
}

// DocumentationArtifact constructs a documentation artifact type
func DocumentationArtifact() ArtifactType {
	return ArtifactType{Kind: ArtifactDocumentation}
}

// ConfigurationArtifact constructs a configuration artifact type
func ConfigurationArtifact() ArtifactType {
	return ArtifactType{Kind: ArtifactConfiguration}
}

// OtherArtifact constructs an artifact type with an unrecognized source tag
func OtherArtifact(tag string) ArtifactType {
	return ArtifactType{Kind: ArtifactOther, Tag: tag}
}

// LifecycleState is one of the four artifact lifecycle states.
type LifecycleState string

const (
	// StateCreated is the initial state of every artifact.
	StateCreated LifecycleState = "created"
	// StateModified marks an artifact changed after creation.
	StateModified LifecycleState = "modified"
	// StateEvaluated marks an artifact that was assessed after modification.
	StateEvaluated LifecycleState = "evaluated"
	// StateRemoved is terminal.
	StateRemoved LifecycleState = "removed"
)

// legalTransitions is the fixed transition table. Removed has no successors.
var legalTransitions = map[LifecycleState][]LifecycleState{
	StateCreated:   {StateModified, StateRemoved},
	StateModified:  {StateModified, StateEvaluated, StateRemoved},
	StateEvaluated: {StateRemoved},
	StateRemoved:   {},
}

// IsValid reports whether s is one of the four known states
func (s LifecycleState) IsValid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is legal
func (s LifecycleState) CanTransitionTo(next LifecycleState) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StateEvent is one (state, timestamp) entry in an artifact's lifecycle
// history. Legality of a history is checked on consecutive pairs only.
type StateEvent struct {
	State     LifecycleState `json:"state"`
	Timestamp int64          `json:"timestamp"`
}

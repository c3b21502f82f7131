package message

// Conversation is the canonical model every export format parses into.
// A Conversation is constructed once per ingestion call and treated as
// immutable after validation succeeds; it is never shared across concurrent
// ingestions.
type Conversation struct {
	// ID uniquely identifies the conversation within a run. Must be non-empty.
	ID string `json:"id"`

	// Platform optionally tags the originating platform (e.g. "claude",
	// "chatgpt"). Empty when the export format carries no platform marker.
	Platform string `json:"platform,omitempty"`

	// Timestamp is the conversation creation time in Unix milliseconds.
	// Must be non-negative.
	Timestamp int64 `json:"timestamp"`

	// Messages is the ordered message sequence. Order is preserved from the
	// source export and drives deterministic downstream emission.
	Messages []Message `json:"messages"`

	// Artifacts holds the artifacts discussed in this conversation, either
	// taken from an explicit export section or detected from fenced code
	// blocks in message content.
	Artifacts []Artifact `json:"artifacts,omitempty"`

	// Metadata carries opaque source metadata. Keys are unique.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Message is one utterance within a Conversation.
type Message struct {
	// ID is unique within the owning Conversation.
	ID string `json:"id"`

	// Speaker identifies who produced the message.
	Speaker Speaker `json:"speaker"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is the message time in Unix milliseconds. Must be non-negative.
	Timestamp int64 `json:"timestamp"`
}

// SpeakerKind discriminates the Speaker variant.
type SpeakerKind string

const (
	// SpeakerHuman marks a message authored by a person.
	SpeakerHuman SpeakerKind = "human"
	// SpeakerLLM marks a message produced by a model.
	SpeakerLLM SpeakerKind = "llm"
)

// Speaker is the tagged variant Human{name} | LLM{model, provider?}.
// Use HumanSpeaker or LLMSpeaker to construct; the zero value is not a
// valid speaker.
type Speaker struct {
	Kind SpeakerKind `json:"kind"`

	// Name is set for human speakers.
	Name string `json:"name,omitempty"`

	// Model is set for LLM speakers. Provider is optional.
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// HumanSpeaker constructs a human speaker
func HumanSpeaker(name string) Speaker {
	return Speaker{Kind: SpeakerHuman, Name: name}
}

// LLMSpeaker constructs an LLM speaker with an optional provider
func LLMSpeaker(model, provider string) Speaker {
	return Speaker{Kind: SpeakerLLM, Model: model, Provider: provider}
}

// IsHuman reports whether the speaker is a person
func (s Speaker) IsHuman() bool {
	return s.Kind == SpeakerHuman
}

// MessageByID returns the message with the given id, or false when no
// message carries it.
func (c *Conversation) MessageByID(id string) (Message, bool) {
	for _, m := range c.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

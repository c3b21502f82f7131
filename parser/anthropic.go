package parser

import (
	"encoding/json"
	"fmt"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

// anthropicExport is the Anthropic conversation export schema
type anthropicExport struct {
	UUID      string   `json:"uuid"`
	Name      string   `json:"name"`
	CreatedAt flexTime `json:"created_at"`
	Account   struct {
		FullName string `json:"full_name"`
	} `json:"account"`
	ChatMessages []anthropicMessage `json:"chat_messages"`
}

// anthropicMessage is one entry of chat_messages
type anthropicMessage struct {
	UUID      string   `json:"uuid"`
	Sender    string   `json:"sender"`
	Text      string   `json:"text"`
	Model     string   `json:"model"`
	CreatedAt flexTime `json:"created_at"`
}

// parseAnthropic decodes an Anthropic export into the canonical model.
// Sender "human" maps to the human speaker variant; everything else is the
// assistant, with the export's model tag when present.
func parseAnthropic(raw []byte) (*message.Conversation, error) {
	var export anthropicExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrSchemaViolation, err),
			"Parser", "parseAnthropic", "export decode")
	}

	msgs := make([]message.Message, 0, len(export.ChatMessages))
	for i, cm := range export.ChatMessages {
		id := cm.UUID
		if id == "" {
			id = fmt.Sprintf("msg-%d", i)
		}

		var speaker message.Speaker
		if cm.Sender == "human" {
			speaker = message.HumanSpeaker(export.Account.FullName)
		} else {
			model := cm.Model
			if model == "" {
				model = "claude"
			}
			speaker = message.LLMSpeaker(model, "anthropic")
		}

		msgs = append(msgs, message.Message{
			ID:        id,
			Speaker:   speaker,
			Content:   cm.Text,
			Timestamp: int64(cm.CreatedAt),
		})
	}

	conv := &message.Conversation{
		ID:        export.UUID,
		Platform:  "claude",
		Timestamp: int64(export.CreatedAt),
		Messages:  msgs,
		Artifacts: collectArtifacts(msgs, nil),
	}
	if export.Name != "" {
		conv.Metadata = map[string]string{"title": export.Name}
	}
	return conv, nil
}

package parser

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

// openaiExport is the OpenAI conversation export schema. Messages live in
// an unordered mapping graph keyed by node id.
type openaiExport struct {
	ConversationID string                `json:"conversation_id"`
	Title          string                `json:"title"`
	CreateTime     flexTime              `json:"create_time"`
	Mapping        map[string]openaiNode `json:"mapping"`
}

// openaiNode is one node of the mapping graph
type openaiNode struct {
	ID      string         `json:"id"`
	Message *openaiMessage `json:"message"`
}

// openaiMessage is the payload of a mapping node
type openaiMessage struct {
	ID     string `json:"id"`
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	Content struct {
		Parts []string `json:"parts"`
	} `json:"content"`
	CreateTime flexTime `json:"create_time"`
	Metadata   struct {
		ModelSlug string `json:"model_slug"`
	} `json:"metadata"`
}

// parseOpenAI decodes an OpenAI export into the canonical model. The
// mapping graph is flattened to a message sequence ordered by create time,
// with node id as the tiebreaker so ordering is deterministic. System and
// tool nodes are dropped; only user and assistant turns survive.
func parseOpenAI(raw []byte) (*message.Conversation, error) {
	var export openaiExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrSchemaViolation, err),
			"Parser", "parseOpenAI", "export decode")
	}

	nodes := make([]openaiNode, 0, len(export.Mapping))
	for key, node := range export.Mapping {
		if node.Message == nil {
			continue
		}
		role := node.Message.Author.Role
		if role != "user" && role != "assistant" {
			continue
		}
		if node.ID == "" {
			node.ID = key
		}
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		ti, tj := nodes[i].Message.CreateTime, nodes[j].Message.CreateTime
		if ti != tj {
			return ti < tj
		}
		return nodes[i].ID < nodes[j].ID
	})

	msgs := make([]message.Message, 0, len(nodes))
	for _, node := range nodes {
		om := node.Message

		content := ""
		for i, part := range om.Content.Parts {
			if i > 0 {
				content += "\n"
			}
			content += part
		}

		var speaker message.Speaker
		if om.Author.Role == "user" {
			speaker = message.HumanSpeaker("")
		} else {
			model := om.Metadata.ModelSlug
			if model == "" {
				model = "gpt"
			}
			speaker = message.LLMSpeaker(model, "openai")
		}

		id := om.ID
		if id == "" {
			id = node.ID
		}
		msgs = append(msgs, message.Message{
			ID:        id,
			Speaker:   speaker,
			Content:   content,
			Timestamp: int64(om.CreateTime),
		})
	}

	convID := export.ConversationID
	if convID == "" && len(nodes) > 0 {
		// Older exports omit conversation_id; fall back to the first node.
		convID = "openai-" + nodes[0].ID
	}

	conv := &message.Conversation{
		ID:        convID,
		Platform:  "chatgpt",
		Timestamp: int64(export.CreateTime),
		Messages:  msgs,
		Artifacts: collectArtifacts(msgs, nil),
	}
	if export.Title != "" {
		conv.Metadata = map[string]string{"title": export.Title}
	}
	return conv, nil
}

package parser

import (
	"encoding/json"
	"fmt"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

// genericExport is the plain transcript format: a messages array plus an
// optional explicit artifacts section. It is the only format that carries
// explicit artifacts; for the others, fence detection is the sole source.
type genericExport struct {
	ID        string            `json:"id"`
	Platform  string            `json:"platform"`
	Timestamp flexTime          `json:"timestamp"`
	Metadata  map[string]string `json:"metadata"`
	Messages  []genericMessage  `json:"messages"`
	Artifacts []genericArtifact `json:"artifacts"`
}

// genericMessage is one transcript entry
type genericMessage struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Speaker   string   `json:"speaker"`
	Model     string   `json:"model"`
	Provider  string   `json:"provider"`
	Content   string   `json:"content"`
	Timestamp flexTime `json:"timestamp"`
}

// genericArtifact is one explicit artifact entry
type genericArtifact struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Language   string   `json:"language"`
	Content    string   `json:"content"`
	CreatedIn  string   `json:"created_in"`
	ModifiedIn []string `json:"modified_in"`
	State      string   `json:"state"`
}

// genericArtifactType maps the explicit type tag to the variant, keeping
// unrecognized tags as Other so they survive to RDF generation.
func genericArtifactType(a genericArtifact) message.ArtifactType {
	switch a.Type {
	case "code":
		return message.CodeArtifact(a.Language)
	case "documentation":
		return message.DocumentationArtifact()
	case "configuration":
		return message.ConfigurationArtifact()
	default:
		return message.OtherArtifact(a.Type)
	}
}

// parseGeneric decodes the plain transcript format into the canonical model
func parseGeneric(raw []byte) (*message.Conversation, error) {
	var export genericExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrSchemaViolation, err),
			"Parser", "parseGeneric", "export decode")
	}

	msgs := make([]message.Message, 0, len(export.Messages))
	for i, gm := range export.Messages {
		id := gm.ID
		if id == "" {
			id = fmt.Sprintf("msg-%d", i)
		}

		var speaker message.Speaker
		switch gm.Role {
		case "assistant", "llm", "model":
			speaker = message.LLMSpeaker(gm.Model, gm.Provider)
		default:
			speaker = message.HumanSpeaker(gm.Speaker)
		}

		msgs = append(msgs, message.Message{
			ID:        id,
			Speaker:   speaker,
			Content:   gm.Content,
			Timestamp: int64(gm.Timestamp),
		})
	}

	explicit := make([]message.Artifact, 0, len(export.Artifacts))
	for _, ga := range export.Artifacts {
		state := message.LifecycleState(ga.State)
		if ga.State == "" {
			state = message.StateCreated
		}
		explicit = append(explicit, message.Artifact{
			ID:         ga.ID,
			Name:       ga.Name,
			Type:       genericArtifactType(ga),
			Content:    ga.Content,
			CreatedIn:  ga.CreatedIn,
			ModifiedIn: ga.ModifiedIn,
			State:      state,
		})
	}

	return &message.Conversation{
		ID:        export.ID,
		Platform:  export.Platform,
		Timestamp: int64(export.Timestamp),
		Metadata:  export.Metadata,
		Messages:  msgs,
		Artifacts: collectArtifacts(msgs, explicit),
	}, nil
}

package parser

import (
	"fmt"
	"regexp"

	"github.com/hyperpolymath/anamnesis/message"
)

// fencePattern matches one fenced code block: opening fence with optional
// language tag, body, closing fence. Non-greedy so adjacent fences in one
// message stay separate.
var fencePattern = regexp.MustCompile("(?s)```([a-zA-Z0-9_+.#-]*)\\r?\\n(.*?)```")

// configLanguages are fence tags treated as configuration rather than code
var configLanguages = map[string]bool{
	"yaml": true, "yml": true, "json": true, "toml": true, "ini": true,
	"env": true, "properties": true,
}

// docLanguages are fence tags treated as documentation
var docLanguages = map[string]bool{
	"markdown": true, "md": true, "text": true, "txt": true, "rst": true,
}

// fenceArtifactType classifies a fence language tag
func fenceArtifactType(language string) message.ArtifactType {
	switch {
	case configLanguages[language]:
		return message.ConfigurationArtifact()
	case docLanguages[language]:
		return message.DocumentationArtifact()
	default:
		return message.CodeArtifact(language)
	}
}

// detectFencedArtifacts scans one message's content for fenced code blocks
// and returns them as artifacts created in that message. Synthetic ids are
// deterministic in (message id, detection order).
func detectFencedArtifacts(m message.Message) []message.Artifact {
	matches := fencePattern.FindAllStringSubmatch(m.Content, -1)
	if len(matches) == 0 {
		return nil
	}

	artifacts := make([]message.Artifact, 0, len(matches))
	for i, match := range matches {
		language, body := match[1], match[2]
		artifacts = append(artifacts, message.Artifact{
			ID:        fmt.Sprintf("%s/artifact/%d", m.ID, i),
			Type:      fenceArtifactType(language),
			Content:   body,
			CreatedIn: m.ID,
			State:     message.StateCreated,
		})
	}
	return artifacts
}

// collectArtifacts applies the precedence rule across a whole conversation:
// messages named by an explicit artifact's created_in keep only their
// explicit artifacts; every other message gets fence detection.
func collectArtifacts(messages []message.Message, explicit []message.Artifact) []message.Artifact {
	covered := make(map[string]bool, len(explicit))
	for _, a := range explicit {
		covered[a.CreatedIn] = true
	}

	artifacts := append([]message.Artifact(nil), explicit...)
	for _, m := range messages {
		if covered[m.ID] {
			continue
		}
		artifacts = append(artifacts, detectFencedArtifacts(m)...)
	}
	return artifacts
}

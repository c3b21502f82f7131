package rdf

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
	"github.com/hyperpolymath/anamnesis/reasoning"
	"github.com/hyperpolymath/anamnesis/vocabulary"
)

// Generator maps a validated conversation plus its inferences to RDF
// triples. Emission is deterministic and order-preserving: the same input
// always produces the same triples in the same order, so serialized output
// is byte-identical across invocations.
type Generator struct{}

// NewGenerator creates a new RDF generator
func NewGenerator() *Generator {
	return &Generator{}
}

// messageClass picks the message type resource by speaker variant
func messageClass(s message.Speaker) string {
	if s.IsHuman() {
		return vocabulary.ClassHumanMessage
	}
	return vocabulary.ClassLLMMessage
}

// artifactClass picks the artifact type resource by type tag, falling back
// to the generic Artifact class for unrecognized tags.
func artifactClass(t message.ArtifactType) string {
	switch t.Kind {
	case message.ArtifactCode:
		return vocabulary.ClassCodeArtifact
	case message.ArtifactDocumentation:
		return vocabulary.ClassDocumentationArtifact
	case message.ArtifactConfiguration:
		return vocabulary.ClassConfigurationArtifact
	default:
		return vocabulary.ClassArtifact
	}
}

// stateResource maps a lifecycle state to one of the four fixed state
// resources.
func stateResource(s message.LifecycleState) (string, error) {
	switch s {
	case message.StateCreated:
		return vocabulary.StateCreatedIRI, nil
	case message.StateModified:
		return vocabulary.StateModifiedIRI, nil
	case message.StateEvaluated:
		return vocabulary.StateEvaluatedIRI, nil
	case message.StateRemoved:
		return vocabulary.StateRemovedIRI, nil
	default:
		return "", fmt.Errorf("%w: no state resource for %q", errors.ErrMissingRequiredField, s)
	}
}

// Generate emits the triples for one conversation and its inferences.
// Emission order: conversation triples, then messages in sequence order,
// then artifacts in sequence order, then membership edges in category
// order.
func (g *Generator) Generate(conv *message.Conversation, inf *reasoning.Inferences) ([]Triple, error) {
	if conv.ID == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: conversation id", errors.ErrMissingRequiredField),
			"Generator", "Generate", "conversation triples")
	}

	convIRI := vocabulary.ConversationIRI(conv.ID)
	triples := []Triple{
		{Subject: convIRI, Predicate: vocabulary.RDFType, Object: vocabulary.ClassConversation},
	}
	if conv.Platform != "" {
		triples = append(triples, Triple{Subject: convIRI, Predicate: vocabulary.PredPlatform, Object: conv.Platform})
	}
	triples = append(triples, Triple{
		Subject:   convIRI,
		Predicate: vocabulary.PredTimestamp,
		Object:    strconv.FormatInt(conv.Timestamp, 10),
	})

	for _, m := range conv.Messages {
		msgTriples, err := g.messageTriples(conv.ID, convIRI, m)
		if err != nil {
			return nil, err
		}
		triples = append(triples, msgTriples...)
	}

	for _, a := range conv.Artifacts {
		artTriples, err := g.artifactTriples(conv.ID, convIRI, a)
		if err != nil {
			return nil, err
		}
		triples = append(triples, artTriples...)
	}

	if inf != nil {
		triples = append(triples, g.inferenceTriples(convIRI, inf)...)
	}

	return triples, nil
}

// messageTriples emits the type triple, the partOf edge, and the optional
// literal triples for one message.
func (g *Generator) messageTriples(convID, convIRI string, m message.Message) ([]Triple, error) {
	if m.ID == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: message id", errors.ErrMissingRequiredField),
			"Generator", "messageTriples", "message triples")
	}

	msgIRI := vocabulary.MessageIRI(convID, m.ID)
	triples := []Triple{
		{Subject: msgIRI, Predicate: vocabulary.RDFType, Object: messageClass(m.Speaker)},
		{Subject: msgIRI, Predicate: vocabulary.PredPartOf, Object: convIRI},
	}

	if m.Content != "" {
		triples = append(triples, Triple{Subject: msgIRI, Predicate: vocabulary.PredContent, Object: m.Content})
	}
	triples = append(triples, Triple{
		Subject:   msgIRI,
		Predicate: vocabulary.PredTimestamp,
		Object:    strconv.FormatInt(m.Timestamp, 10),
	})

	if m.Speaker.IsHuman() {
		if m.Speaker.Name != "" {
			triples = append(triples, Triple{Subject: msgIRI, Predicate: vocabulary.PredSpeakerName, Object: m.Speaker.Name})
		}
	} else {
		if m.Speaker.Model != "" {
			triples = append(triples, Triple{Subject: msgIRI, Predicate: vocabulary.PredModel, Object: m.Speaker.Model})
		}
		if m.Speaker.Provider != "" {
			triples = append(triples, Triple{Subject: msgIRI, Predicate: vocabulary.PredProvider, Object: m.Speaker.Provider})
		}
	}

	return triples, nil
}

// artifactTriples emits the type triple, the structural edges (discusses,
// createdIn, modifiedIn, lifecycle state), and the optional literals for
// one artifact.
func (g *Generator) artifactTriples(convID, convIRI string, a message.Artifact) ([]Triple, error) {
	if a.ID == "" || a.CreatedIn == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: artifact id and created_in", errors.ErrMissingRequiredField),
			"Generator", "artifactTriples", "artifact triples")
	}

	state, err := stateResource(a.State)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Generator", "artifactTriples", "state resource lookup")
	}

	artIRI := vocabulary.ArtifactIRI(convID, a.ID)
	triples := []Triple{
		{Subject: artIRI, Predicate: vocabulary.RDFType, Object: artifactClass(a.Type)},
		{Subject: convIRI, Predicate: vocabulary.PredDiscusses, Object: artIRI},
		{Subject: artIRI, Predicate: vocabulary.PredCreatedIn, Object: vocabulary.MessageIRI(convID, a.CreatedIn)},
	}
	for _, ref := range a.ModifiedIn {
		triples = append(triples, Triple{
			Subject:   artIRI,
			Predicate: vocabulary.PredModifiedIn,
			Object:    vocabulary.MessageIRI(convID, ref),
		})
	}
	triples = append(triples, Triple{Subject: artIRI, Predicate: vocabulary.PredLifecycleState, Object: state})

	if a.Name != "" {
		triples = append(triples, Triple{Subject: artIRI, Predicate: vocabulary.PredName, Object: a.Name})
	}
	if a.Content != "" {
		triples = append(triples, Triple{Subject: artIRI, Predicate: vocabulary.PredContent, Object: a.Content})
	}
	if a.Type.Kind == message.ArtifactCode && a.Type.Language != "" {
		triples = append(triples, Triple{Subject: artIRI, Predicate: vocabulary.PredLanguage, Object: a.Type.Language})
	}

	return triples, nil
}

// inferenceTriples emits membership edges in sorted category order plus
// the contamination risk literal. Sorting keeps emission deterministic
// even though memberships arrive as an unordered set.
func (g *Generator) inferenceTriples(convIRI string, inf *reasoning.Inferences) []Triple {
	categories := make([]string, 0, len(inf.Memberships))
	seen := make(map[string]bool, len(inf.Memberships))
	for _, m := range inf.Memberships {
		if !seen[m.Category] {
			seen[m.Category] = true
			categories = append(categories, m.Category)
		}
	}
	sort.Strings(categories)

	triples := make([]Triple, 0, len(categories)+1)
	for _, cat := range categories {
		triples = append(triples, Triple{
			Subject:   convIRI,
			Predicate: vocabulary.PredMemberOf,
			Object:    vocabulary.CategoryIRI(cat),
		})
	}
	triples = append(triples, Triple{
		Subject:   convIRI,
		Predicate: vocabulary.PredContaminationRisk,
		Object:    strconv.FormatFloat(inf.Risk, 'f', -1, 64),
	})
	return triples
}

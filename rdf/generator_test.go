package rdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
	"github.com/hyperpolymath/anamnesis/reasoning"
	"github.com/hyperpolymath/anamnesis/vocabulary"
)

func generatorFixture() (*message.Conversation, *reasoning.Inferences) {
	conv := &message.Conversation{
		ID:        "c1",
		Platform:  "claude",
		Timestamp: 1700000000000,
		Messages: []message.Message{
			{ID: "m1", Speaker: message.HumanSpeaker("ada"), Content: "write a frame codec", Timestamp: 1700000000000},
			{ID: "m2", Speaker: message.LLMSpeaker("claude-3", "anthropic"), Content: "done", Timestamp: 1700000001000},
		},
		Artifacts: []message.Artifact{
			{
				ID:         "c1/m2/0",
				Name:       "codec.go",
				Type:       message.CodeArtifact("go"),
				Content:    "package frame",
				CreatedIn:  "m2",
				ModifiedIn: []string{"m2"},
				State:      message.StateModified,
			},
		},
	}
	inf := &reasoning.Inferences{
		Memberships: []message.ProjectMembership{
			{Category: "infra", Type: message.MembershipPrimary},
			{Category: "tooling", Type: message.MembershipSecondary},
		},
		Normalized: reasoning.NormalizeMembership([]message.ProjectMembership{
			{Category: "infra", Type: message.MembershipPrimary},
			{Category: "tooling", Type: message.MembershipSecondary},
		}),
		Risk: 0.5,
	}
	return conv, inf
}

func TestGenerateStructure(t *testing.T) {
	conv, inf := generatorFixture()
	gen := NewGenerator()

	triples, err := gen.Generate(conv, inf)
	require.NoError(t, err)

	byPredicate := make(map[string][]Triple)
	for _, tr := range triples {
		byPredicate[tr.Predicate] = append(byPredicate[tr.Predicate], tr)
	}

	// One type triple per entity.
	types := byPredicate[vocabulary.RDFType]
	require.Len(t, types, 4)
	assert.Equal(t, vocabulary.ClassConversation, types[0].Object)
	assert.Equal(t, vocabulary.ClassHumanMessage, types[1].Object)
	assert.Equal(t, vocabulary.ClassLLMMessage, types[2].Object)
	assert.Equal(t, vocabulary.ClassCodeArtifact, types[3].Object)

	// Structural edges.
	assert.Len(t, byPredicate[vocabulary.PredPartOf], 2)
	require.Len(t, byPredicate[vocabulary.PredDiscusses], 1)
	assert.Equal(t, vocabulary.ConversationIRI("c1"), byPredicate[vocabulary.PredDiscusses][0].Subject)
	require.Len(t, byPredicate[vocabulary.PredCreatedIn], 1)
	assert.Equal(t, vocabulary.MessageIRI("c1", "m2"), byPredicate[vocabulary.PredCreatedIn][0].Object)
	require.Len(t, byPredicate[vocabulary.PredLifecycleState], 1)
	assert.Equal(t, vocabulary.StateModifiedIRI, byPredicate[vocabulary.PredLifecycleState][0].Object)

	// Membership edges in sorted category order.
	members := byPredicate[vocabulary.PredMemberOf]
	require.Len(t, members, 2)
	assert.Equal(t, vocabulary.CategoryIRI("infra"), members[0].Object)
	assert.Equal(t, vocabulary.CategoryIRI("tooling"), members[1].Object)

	require.Len(t, byPredicate[vocabulary.PredContaminationRisk], 1)
	assert.Equal(t, "0.5", byPredicate[vocabulary.PredContaminationRisk][0].Object)

	// Optional literals present on the source objects.
	assert.Len(t, byPredicate[vocabulary.PredContent], 3)
	require.Len(t, byPredicate[vocabulary.PredName], 1)
	assert.Equal(t, "codec.go", byPredicate[vocabulary.PredName][0].Object)
	require.Len(t, byPredicate[vocabulary.PredLanguage], 1)
	assert.Equal(t, "go", byPredicate[vocabulary.PredLanguage][0].Object)
}

func TestGenerateIsIdempotent(t *testing.T) {
	conv, inf := generatorFixture()
	gen := NewGenerator()

	first, err := gen.Generate(conv, inf)
	require.NoError(t, err)
	second, err := gen.Generate(conv, inf)
	require.NoError(t, err)

	assert.Equal(t, ToNTriples(first), ToNTriples(second),
		"two invocations on the same input must produce byte-identical output")
}

func TestGenerateUnrecognizedArtifactKindFallsBack(t *testing.T) {
	conv, _ := generatorFixture()
	conv.Artifacts[0].Type = message.OtherArtifact("notebook")

	triples, err := NewGenerator().Generate(conv, nil)
	require.NoError(t, err)

	found := false
	for _, tr := range triples {
		if tr.Predicate == vocabulary.RDFType && tr.Object == vocabulary.ClassArtifact {
			found = true
		}
	}
	assert.True(t, found, "unrecognized artifact kinds map to the generic Artifact class")
}

func TestGenerateMissingRequiredFields(t *testing.T) {
	gen := NewGenerator()

	_, err := gen.Generate(&message.Conversation{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingRequiredField)

	conv, _ := generatorFixture()
	conv.Messages[0].ID = ""
	_, err = gen.Generate(conv, nil)
	assert.ErrorIs(t, err, errors.ErrMissingRequiredField)

	conv, _ = generatorFixture()
	conv.Artifacts[0].CreatedIn = ""
	_, err = gen.Generate(conv, nil)
	assert.ErrorIs(t, err, errors.ErrMissingRequiredField)

	conv, _ = generatorFixture()
	conv.Artifacts[0].State = "limbo"
	_, err = gen.Generate(conv, nil)
	assert.ErrorIs(t, err, errors.ErrMissingRequiredField)
}

func TestGenerateRoundTripThroughNTriples(t *testing.T) {
	conv, inf := generatorFixture()
	conv.Messages[0].Content = "escape \"this\"\nproperly \\ok"
	conv.Messages[1].Content = "\"hello\" she said\nand left"

	triples, err := NewGenerator().Generate(conv, inf)
	require.NoError(t, err)

	text := ToNTriples(triples)
	recovered, err := ParseNTriples(text)
	require.NoError(t, err)
	assert.Len(t, recovered, len(triples))

	// The tricky literals survive the trip intact.
	objects := make(map[string]bool, len(recovered))
	for _, tr := range recovered {
		objects[tr.Object] = true
	}
	assert.True(t, objects[conv.Messages[0].Content])
	assert.True(t, objects[conv.Messages[1].Content], "quote-leading content must be escaped, not passed through")
	assert.False(t, strings.Contains(text, "\"this\"\n"), "raw newline must not appear inside a literal")
	assert.False(t, strings.Contains(text, "she said\n"), "raw newline must not appear inside a literal")
}

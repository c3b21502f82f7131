package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

func TestNormalizeMembership(t *testing.T) {
	memberships := []message.ProjectMembership{
		{Category: "A", Type: message.MembershipPrimary},
		{Category: "B", Type: message.MembershipSecondary},
	}

	n := NormalizeMembership(memberships)
	require.False(t, n.Uncategorized)

	assert.InDelta(t, 1.0/1.6, n.Scores["A"], 1e-9)
	assert.InDelta(t, 0.6/1.6, n.Scores["B"], 1e-9)

	total := 0.0
	for _, s := range n.Scores {
		total += s
	}
	assert.InDelta(t, 1.0, total, 1e-9, "normalized scores must sum to 1.0")
}

func TestNormalizeMembershipZeroTotal(t *testing.T) {
	n := NormalizeMembership(nil)
	assert.True(t, n.Uncategorized)
	assert.Empty(t, n.Scores)

	// Unknown types weigh zero; an all-unknown set is uncategorized, not a
	// division error.
	n = NormalizeMembership([]message.ProjectMembership{
		{Category: "A", Type: message.MembershipType("mystery")},
	})
	assert.True(t, n.Uncategorized)
}

func TestNormalizeMembershipAccumulatesCategories(t *testing.T) {
	memberships := []message.ProjectMembership{
		{Category: "A", Type: message.MembershipSecondary},
		{Category: "A", Type: message.MembershipTangential},
		{Category: "B", Type: message.MembershipPrimary},
	}

	n := NormalizeMembership(memberships)
	require.False(t, n.Uncategorized)
	assert.InDelta(t, 0.9/1.9, n.Scores["A"], 1e-9)
	assert.InDelta(t, 1.0/1.9, n.Scores["B"], 1e-9)
}

func TestContaminationRisk(t *testing.T) {
	assert.Equal(t, 0.0, ContaminationRisk(nil))

	onlyPrimary := []message.ProjectMembership{
		{Category: "A", Type: message.MembershipPrimary},
	}
	assert.Equal(t, 0.0, ContaminationRisk(onlyPrimary))

	mixed := []message.ProjectMembership{
		{Category: "A", Type: message.MembershipPrimary},
		{Category: "B", Type: message.MembershipSecondary},
		{Category: "C", Type: message.MembershipTangential},
		{Category: "D", Type: message.MembershipTangential},
	}
	assert.InDelta(t, 0.75, ContaminationRisk(mixed), 1e-9)
}

func TestInfer(t *testing.T) {
	conv := &message.Conversation{
		ID:        "c1",
		Timestamp: 1000,
		Messages: []message.Message{
			{ID: "m1", Speaker: message.HumanSpeaker("ada"), Timestamp: 1000},
		},
		Artifacts: []message.Artifact{
			{ID: "a1", Type: message.CodeArtifact("go"), CreatedIn: "m1", State: message.StateModified},
		},
	}
	memberships := []message.ProjectMembership{
		{Category: "A", Type: message.MembershipPrimary},
		{Category: "B", Type: message.MembershipSecondary},
	}
	histories := map[string][]message.StateEvent{
		"a1": {
			{State: message.StateCreated, Timestamp: 1000},
			{State: message.StateModified, Timestamp: 2000},
		},
	}

	inf, err := Infer(conv, memberships, histories)
	require.NoError(t, err)
	assert.InDelta(t, 0.625, inf.Normalized.Scores["A"], 1e-9)
	assert.InDelta(t, 0.5, inf.Risk, 1e-9)
}

func TestInferRejectsIllegalHistory(t *testing.T) {
	conv := &message.Conversation{
		ID: "c1",
		Messages: []message.Message{
			{ID: "m1", Speaker: message.HumanSpeaker("ada")},
		},
		Artifacts: []message.Artifact{
			{ID: "a1", Type: message.CodeArtifact("go"), CreatedIn: "m1", State: message.StateRemoved},
		},
	}
	histories := map[string][]message.StateEvent{
		"a1": {
			{State: message.StateRemoved, Timestamp: 1000},
			{State: message.StateCreated, Timestamp: 2000},
		},
	}

	_, err := Infer(conv, nil, histories)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIllegalTransition)
}

func TestInferRejectsMalformedMemberships(t *testing.T) {
	conv := &message.Conversation{ID: "c1"}

	_, err := Infer(conv, []message.ProjectMembership{
		{Category: "A", Type: message.MembershipType("cosmic")},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMalformedRuleSet)

	_, err = Infer(conv, []message.ProjectMembership{
		{Category: "", Type: message.MembershipPrimary},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMalformedRuleSet)
}

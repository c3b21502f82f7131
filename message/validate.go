package message

import "fmt"

// ValidationError describes one invariant violation found in a Conversation.
// Validation accumulates every violation rather than stopping at the first,
// so a single pass reports everything wrong with an export.
type ValidationError struct {
	// Field names the violated invariant (e.g. "conversation.id",
	// "artifact.created_in").
	Field string `json:"field"`

	// Subject identifies the offending entity, when one exists.
	Subject string `json:"subject,omitempty"`

	// Reason is a human-readable description.
	Reason string `json:"reason"`
}

// Error implements the error interface
func (v ValidationError) Error() string {
	if v.Subject != "" {
		return fmt.Sprintf("%s (%s): %s", v.Field, v.Subject, v.Reason)
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// Validate runs every invariant check over the conversation and returns the
// complete list of violations. An empty slice means the conversation is
// structurally sound and may be treated as immutable from here on.
//
// Checks, in order: non-empty conversation id, non-negative timestamps,
// unique message ids, non-empty artifact ids, known lifecycle states, and
// referential integrity of created_in/modified_in.
func (c *Conversation) Validate() []ValidationError {
	var violations []ValidationError

	if c.ID == "" {
		violations = append(violations, ValidationError{
			Field:  "conversation.id",
			Reason: "conversation id must be non-empty",
		})
	}
	if c.Timestamp < 0 {
		violations = append(violations, ValidationError{
			Field:   "conversation.timestamp",
			Subject: c.ID,
			Reason:  fmt.Sprintf("timestamp %d is negative", c.Timestamp),
		})
	}

	seen := make(map[string]bool, len(c.Messages))
	messageIDs := make(map[string]bool, len(c.Messages))
	for _, m := range c.Messages {
		if m.ID == "" {
			violations = append(violations, ValidationError{
				Field:  "message.id",
				Reason: "message id must be non-empty",
			})
		} else if seen[m.ID] {
			violations = append(violations, ValidationError{
				Field:   "message.id",
				Subject: m.ID,
				Reason:  "duplicate message id",
			})
		}
		seen[m.ID] = true
		messageIDs[m.ID] = true

		if m.Timestamp < 0 {
			violations = append(violations, ValidationError{
				Field:   "message.timestamp",
				Subject: m.ID,
				Reason:  fmt.Sprintf("timestamp %d is negative", m.Timestamp),
			})
		}
	}

	for _, a := range c.Artifacts {
		violations = append(violations, c.validateArtifact(a, messageIDs)...)
	}

	return violations
}

// validateArtifact checks one artifact's invariants against the set of
// known message ids.
func (c *Conversation) validateArtifact(a Artifact, messageIDs map[string]bool) []ValidationError {
	var violations []ValidationError

	if a.ID == "" {
		violations = append(violations, ValidationError{
			Field:  "artifact.id",
			Reason: "artifact id must be non-empty",
		})
	}

	if !a.State.IsValid() {
		violations = append(violations, ValidationError{
			Field:   "artifact.state",
			Subject: a.ID,
			Reason:  fmt.Sprintf("unknown lifecycle state %q", a.State),
		})
	}

	if a.CreatedIn == "" {
		violations = append(violations, ValidationError{
			Field:   "artifact.created_in",
			Subject: a.ID,
			Reason:  "created_in must reference a message",
		})
	} else if !messageIDs[a.CreatedIn] {
		violations = append(violations, ValidationError{
			Field:   "artifact.created_in",
			Subject: a.ID,
			Reason:  fmt.Sprintf("created_in references unknown message %q", a.CreatedIn),
		})
	}

	for _, ref := range a.ModifiedIn {
		if !messageIDs[ref] {
			violations = append(violations, ValidationError{
				Field:   "artifact.modified_in",
				Subject: a.ID,
				Reason:  fmt.Sprintf("modified_in references unknown message %q", ref),
			})
		}
	}

	return violations
}

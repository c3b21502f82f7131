package reasoning

import (
	"fmt"
	"sort"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

// TransitionError reports the first illegal consecutive pair found in a
// lifecycle history.
type TransitionError struct {
	From message.LifecycleState
	To   message.LifecycleState
}

// Error implements the error interface
func (te *TransitionError) Error() string {
	return fmt.Sprintf("illegal lifecycle transition %s -> %s", te.From, te.To)
}

// Unwrap ties TransitionError into the core error taxonomy
func (te *TransitionError) Unwrap() error {
	return errors.ErrIllegalTransition
}

// sortedByTime returns a copy of events in timestamp order. The sort is
// stable so same-timestamp events keep their source order.
func sortedByTime(events []message.StateEvent) []message.StateEvent {
	ordered := make([]message.StateEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})
	return ordered
}

// CurrentState returns the state of the latest event with timestamp <= atTime.
// The second return is false when no event has happened yet at atTime.
func CurrentState(events []message.StateEvent, atTime int64) (message.LifecycleState, bool) {
	ordered := sortedByTime(events)

	var current message.LifecycleState
	found := false
	for _, ev := range ordered {
		if ev.Timestamp > atTime {
			break
		}
		current = ev.State
		found = true
	}
	return current, found
}

// ValidateLifecycle walks consecutive event pairs in timestamp order and
// fails on the first pair that violates the legal-transition table,
// reporting the offending (from, to) pair. Empty and single-event
// histories are trivially valid.
func ValidateLifecycle(events []message.StateEvent) error {
	if len(events) < 2 {
		return nil
	}

	ordered := sortedByTime(events)
	for i := 1; i < len(ordered); i++ {
		from, to := ordered[i-1].State, ordered[i].State
		if !from.CanTransitionTo(to) {
			return &TransitionError{From: from, To: to}
		}
	}
	return nil
}

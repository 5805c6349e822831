package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states, serialized to JSON
// for partial updates on a client.
type StateDiff struct {
	SessionID string `json:"session_id"`

	CurrentNodeID *string          `json:"current_node_id,omitempty"`
	Status        *ExecutionStatus `json:"status,omitempty"`

	// Vars contains only changed, added or deleted keys.
	// Deleted keys are present with a nil value.
	Vars map[string]any `json:"vars,omitempty"`

	// Shared holds the changed shared properties, like Vars.
	Shared map[string]any `json:"shared,omitempty"`

	// History contains the nodes appended since the old state.
	History []string `json:"history,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// A nil oldState yields the whole newState (initial load). Nil means no change.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}
	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		node := newState.CurrentNodeID
		diff.CurrentNodeID = &node
	}
	if oldState == nil || oldState.Status != newState.Status {
		status := newState.Status
		diff.Status = &status
	}
	var oldVars, oldShared map[string]any
	if oldState != nil {
		oldVars, oldShared = oldState.Vars, oldState.Shared
	}
	diff.Vars = diffVars(oldState == nil, oldVars, newState.Vars)
	diff.Shared = diffVars(oldState == nil, oldShared, newState.Shared)
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVars(initial bool, old, new map[string]any) map[string]any {
	delta := make(map[string]any)
	if initial {
		for k, v := range new {
			delta[k] = v
		}
	} else {
		for k, newVal := range new {
			if oldVal, exists := old[k]; !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old {
			if _, exists := new[k]; !exists {
				delta[k] = nil
			}
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes History is append-only.
func diffHistory(old, new *State) []string {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return new.History
	}
	if len(new.History) > len(old.History) {
		return new.History[len(old.History):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		len(d.Vars) == 0 &&
		len(d.Shared) == 0 &&
		len(d.History) == 0
}

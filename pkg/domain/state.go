package domain

import (
	"maps"
	"slices"
	"time"
)

// ExecutionStatus is the lifecycle stage of a reading session.
type ExecutionStatus string

const (
	StatusActive     ExecutionStatus = "active"     // The reader can still choose
	StatusTerminated ExecutionStatus = "terminated" // The current node offers no visible option
	StatusClosed     ExecutionStatus = "closed"     // The story closed itself
)

// State is the snapshot of one reading of a story.
type State struct {
	SessionID     string          `json:"session_id"`
	StoryID       string          `json:"story_id"`
	CurrentNodeID string          `json:"current_node_id"`
	Status        ExecutionStatus `json:"status"`

	// Vars holds the story variables. Numbers are float64.
	Vars map[string]any `json:"vars"`

	// Shared is this reading's copy of the host's shared properties,
	// seeded when the reading starts.
	Shared map[string]any `json:"shared,omitempty"`

	// History lists every node entered, oldest first.
	History []string `json:"history"`

	// Messages were raised by the script during the last step and are
	// shown by the next render.
	Messages []SystemMessage `json:"messages,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean state positioned on startNodeID.
func NewState(sessionID, storyID, startNodeID string) *State {
	return &State{
		SessionID:     sessionID,
		StoryID:       storyID,
		CurrentNodeID: startNodeID,
		Status:        StatusActive,
		Vars:          make(map[string]any),
		History:       []string{startNodeID},
		UpdatedAt:     time.Now().UTC(),
	}
}

// Snapshot returns a copy that shares nothing mutable with s.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Vars = maps.Clone(s.Vars)
	if c.Vars == nil {
		c.Vars = make(map[string]any)
	}
	c.Shared = maps.Clone(s.Shared)
	c.History = slices.Clone(s.History)
	c.Messages = slices.Clone(s.Messages)
	return &c
}

// Visited reports whether the node was entered at least once.
func (s *State) Visited(nodeID string) bool {
	return slices.Contains(s.History, nodeID)
}

// Done reports whether the reading is over.
func (s *State) Done() bool {
	return s.Status == StatusTerminated || s.Status == StatusClosed
}

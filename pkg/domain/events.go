package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventChoice    EventType = "choice"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	StoryID   string    `json:"story_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID string `json:"node_id"`
}

// ChoiceEvent represents the reader selecting an option.
type ChoiceEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Option int    `json:"option"`
	Text   string `json:"text"`
	Next   string `json:"next"`
}

// LifecycleHooks defines callbacks for player observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnChoice    func(context.Context, *ChoiceEvent)
}

// NewEventBase stamps an event for a state.
func NewEventBase(typ EventType, s *State) EventBase {
	return EventBase{
		Timestamp: time.Now(),
		Type:      typ,
		SessionID: s.SessionID,
		StoryID:   s.StoryID,
	}
}

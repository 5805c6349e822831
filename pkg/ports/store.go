package ports

import (
	"context"

	"github.com/aretw0/storytree/pkg/domain"
)

// StateStore persists reading sessions, enabling "stop & resume" reading.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID. Deleting a missing
	// session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns every stored session ID.
	List(ctx context.Context) ([]string, error)
}

package ports

import (
	"context"

	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/story"
)

// StatelessPlayer plays one story without keeping per-session data: every
// call receives the session state and returns a new one. It is the interface
// used by adapters (HTTP, MCP) that keep sessions in a StateStore.
type StatelessPlayer interface {
	// Story returns the story being played.
	Story() *story.Story

	// Start creates a state at the initial node and runs its entry code.
	Start(ctx context.Context, sessionID string) (*domain.State, error)

	// Render calculates what to show for a state without advancing it.
	// The boolean reports whether the state is terminal.
	Render(ctx context.Context, state *domain.State) ([]domain.ActionRequest, bool, error)

	// Navigate selects an option and returns the resulting state.
	Navigate(ctx context.Context, state *domain.State, input any) (*domain.State, error)
}

package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/storytree/internal/runtime"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer_LifecycleHooks(t *testing.T) {
	var entered, left []string
	var choices []domain.ChoiceEvent

	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			entered = append(entered, e.NodeID)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			left = append(left, e.NodeID)
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			choices = append(choices, *e)
		},
	}

	p := newPlayer(t, nil, `story "s" {
	node "start" "Start" { option "Go" -> "end" }
	node "end" "End"
}`, runtime.WithLifecycleHooks(hooks))

	ctx := context.Background()
	state, err := p.Start(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, entered)

	state, err = p.Navigate(ctx, state, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTerminated, state.Status)

	assert.Equal(t, []string{"start", "end"}, entered)
	assert.Equal(t, []string{"start"}, left)
	require.Len(t, choices, 1)
	assert.Equal(t, "sess", choices[0].SessionID)
	assert.Equal(t, "s", choices[0].StoryID)
	assert.Equal(t, domain.EventChoice, choices[0].Type)
	assert.Equal(t, 1, choices[0].Option)
	assert.Equal(t, "Go", choices[0].Text)
	assert.Equal(t, "end", choices[0].Next)
}

package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/storytree/internal/interp"
	"github.com/aretw0/storytree/internal/runtime"
	"github.com/aretw0/storytree/internal/testutils"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/dsl"
	"github.com/aretw0/storytree/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cave = `
story "cave" {
	var torch = false
	var visits = 0

	node "entrance" "You stand at the mouth of a cave. Visits: {{ visits }}" {
		on reach { visits = visits + 1 }
		option "Take the torch" visible !torch { torch = true }
		option "Enter" -> "inside" if torch
	}

	node "inside" {
		body "It is NAME inside."
		bind "NAME" = "dark"
		option "Leave" {
			if visited("entrance") { goto "entrance" }
		}
		option "Rest" {
			warn "you rest"
			close
		}
	}
}
`

func newPlayer(t *testing.T, eng story.BaseEngine, src string, opts ...runtime.Option) *runtime.Player {
	t.Helper()
	in := interp.New(interp.Config{Engine: eng})
	script, err := dsl.Parse("test.story", src)
	require.NoError(t, err)
	stories, err := in.Build(context.Background(), script)
	require.NoError(t, err)
	require.NotEmpty(t, stories)
	return runtime.NewPlayer(stories[0], in, opts...)
}

func render(t *testing.T, p *runtime.Player, state *domain.State) (string, []domain.OptionView, bool) {
	t.Helper()
	actions, terminal, err := p.Render(context.Background(), state)
	require.NoError(t, err)

	var body string
	var options []domain.OptionView
	for _, a := range actions {
		switch a.Type {
		case domain.ActionRenderContent:
			body = a.Payload.(string)
		case domain.ActionRequestChoice:
			options = a.Payload.(domain.ChoiceRequest).Options
		}
	}
	return body, options, terminal
}

func TestPlayer_Walkthrough(t *testing.T) {
	ctx := context.Background()
	p := newPlayer(t, nil, cave)

	state, err := p.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "entrance", state.CurrentNodeID)
	assert.Equal(t, domain.StatusActive, state.Status)
	assert.Equal(t, float64(1), state.Vars["visits"])

	body, options, terminal := render(t, p, state)
	assert.False(t, terminal)
	assert.Equal(t, "You stand at the mouth of a cave. Visits: 1", body)
	assert.Equal(t, []domain.OptionView{{Index: 1, Text: "Take the torch", Available: true}}, options)

	t.Run("Hidden option is rejected", func(t *testing.T) {
		_, err := p.Navigate(ctx, state, 2)
		assert.ErrorIs(t, err, domain.ErrInvalidChoice)
	})

	// No target: the node reloads and its entry code runs again.
	state, err = p.Navigate(ctx, state, "1")
	require.NoError(t, err)
	assert.Equal(t, "entrance", state.CurrentNodeID)
	assert.Equal(t, true, state.Vars["torch"])
	assert.Equal(t, float64(2), state.Vars["visits"])

	_, options, _ = render(t, p, state)
	assert.Equal(t, []domain.OptionView{{Index: 2, Text: "Enter", Available: true}}, options)

	state, err = p.Navigate(ctx, state, " enter ")
	require.NoError(t, err)
	assert.Equal(t, "inside", state.CurrentNodeID)

	body, _, _ = render(t, p, state)
	assert.Equal(t, "It is dark inside.", body)

	state, err = p.Navigate(ctx, state, float64(1))
	require.NoError(t, err)
	assert.Equal(t, "entrance", state.CurrentNodeID)
	assert.Equal(t, float64(3), state.Vars["visits"])
	assert.Equal(t, []string{"entrance", "entrance", "inside", "entrance"}, state.History)

	state, err = p.Navigate(ctx, state, 2)
	require.NoError(t, err)
	state, err = p.Navigate(ctx, state, "Rest")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, state.Status)
	assert.Equal(t, []domain.SystemMessage{{Level: domain.LevelWarning, Text: "you rest"}}, state.Messages)

	actions, terminal, err := p.Render(ctx, state)
	require.NoError(t, err)
	assert.True(t, terminal)
	require.Len(t, actions, 2)
	assert.Equal(t, domain.ActionSystemMessage, actions[0].Type)
	assert.Equal(t, domain.ActionRenderContent, actions[1].Type)

	_, err = p.Navigate(ctx, state, 1)
	assert.ErrorIs(t, err, domain.ErrSessionDone)
}

func TestPlayer_NavigateDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	p := newPlayer(t, nil, cave)

	state, err := p.Start(ctx, "s1")
	require.NoError(t, err)
	before := state.Snapshot()

	next, err := p.Navigate(ctx, state, 1)
	require.NoError(t, err)
	assert.NotSame(t, state, next)
	assert.Equal(t, before, state)
}

func TestPlayer_UnavailableOption(t *testing.T) {
	ctx := context.Background()
	p := newPlayer(t, nil, `story "s" {
		node "a" "A" {
			option "Locked" -> "b" if false visible true
			option "Open" -> "b"
		}
		node "b" "B"
	}`)

	state, err := p.Start(ctx, "s1")
	require.NoError(t, err)

	_, options, _ := render(t, p, state)
	require.Len(t, options, 2)
	assert.False(t, options[0].Available)

	_, err = p.Navigate(ctx, state, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)
	_, err = p.Navigate(ctx, state, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)
	_, err = p.Navigate(ctx, state, 1.5)
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)

	state, err = p.Navigate(ctx, state, "Open")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTerminated, state.Status)

	body, options, terminal := render(t, p, state)
	assert.True(t, terminal)
	assert.Empty(t, options)
	assert.Equal(t, "B", body)
}

func TestPlayer_StartsAtInitialNode(t *testing.T) {
	ctx := context.Background()

	p := newPlayer(t, nil, `story { node "x" "X" node "1" "One" }`)
	state, err := p.Start(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "1", state.CurrentNodeID)

	p = newPlayer(t, nil, `story { start = "y" node "x" "X" node "y" "Y" }`)
	state, err = p.Start(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "y", state.CurrentNodeID)
	assert.Equal(t, []string{"y"}, state.History)
}

func TestPlayer_RuntimeErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Undefined variable", func(t *testing.T) {
		p := newPlayer(t, nil, `story "s" {
	node "a" {
		on reach { x = missing + 1 }
	}
}`)
		_, err := p.Start(ctx, "s1")
		require.Error(t, err)

		var evalErr *story.EvaluationError
		require.ErrorAs(t, err, &evalErr)
		assert.Equal(t, story.PhaseRuntime, evalErr.Phase)
		assert.Equal(t, "s", evalErr.Source)
		assert.Equal(t, 3, evalErr.Diagnostics[0].Pos.Line)
	})

	t.Run("Engine lacks capability", func(t *testing.T) {
		p := newPlayer(t, nil, `story "s" {
	node "a" "A" { option "Name" { ask "Who?" -> name } }
}`)
		state, err := p.Start(ctx, "s1")
		require.NoError(t, err)

		_, err = p.Navigate(ctx, state, 1)
		var incompatible *story.IncompatibleEngineError
		require.ErrorAs(t, err, &incompatible)
		assert.Equal(t, story.CapabilityCommon, incompatible.Required)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		p := newPlayer(t, nil, cave)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.Start(cctx, "s1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPlayer_ChoiceYields(t *testing.T) {
	ctx := context.Background()
	eng := &testutils.ScriptedEngine{Picks: []string{"Left", ""}}
	p := newPlayer(t, eng, `story "s" {
	node "fork" "A fork." {
		option "Decide" {
			choose way = "Which way?" {
				cancellable
				choice "Left" color "blue" yields "west"
				choice "Right" yields "east"
				cancel yields "back"
			}
		}
	}
}`)

	state, err := p.Start(ctx, "s1")
	require.NoError(t, err)

	state, err = p.Navigate(ctx, state, 1)
	require.NoError(t, err)
	assert.Equal(t, "west", state.Vars["way"])

	state, err = p.Navigate(ctx, state, 1)
	require.NoError(t, err)
	assert.Equal(t, "back", state.Vars["way"])

	require.Len(t, eng.Choices, 2)
	assert.Equal(t, "Which way?", eng.Choices[0].Text)
	assert.True(t, eng.Choices[0].Cancellable)
	assert.Equal(t, "blue", eng.Choices[0].Options[0].Color)
}

func TestPlayer_SharedProperties(t *testing.T) {
	ctx := context.Background()
	env := story.NewEnvironment()
	in := interp.New(interp.Config{Env: env})
	script, err := dsl.Parse("t", `story "s" {
	shared deaths = 0
	node "a" "Deaths: {{ deaths }}" { option "Die" { deaths = deaths + 1 } }
}`)
	require.NoError(t, err)
	stories, err := in.Build(ctx, script)
	require.NoError(t, err)
	p := runtime.NewPlayer(stories[0], in)

	first, err := p.Start(ctx, "one")
	require.NoError(t, err)
	first, err = p.Navigate(ctx, first, "Die")
	require.NoError(t, err)
	body, _, _ := render(t, p, first)
	assert.Equal(t, "Deaths: 1", body)
	assert.Equal(t, float64(1), first.Shared["deaths"])
	assert.NotContains(t, first.Vars, "deaths")

	second, err := p.Start(ctx, "two")
	require.NoError(t, err)
	body, _, _ = render(t, p, second)
	assert.Equal(t, "Deaths: 0", body)

	v, _ := env.Get("deaths")
	assert.Equal(t, float64(0), v)

	// States saved before they carried shared properties read the host's.
	legacy := second.Snapshot()
	legacy.Shared = nil
	env.Set("deaths", float64(7))
	body, _, _ = render(t, p, legacy)
	assert.Equal(t, "Deaths: 7", body)
}

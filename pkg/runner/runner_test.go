package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/pkg/adapters/memory"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/runner"
	"github.com/aretw0/storytree/pkg/session"
)

const door = `
story "door" {
	var knocks = 0
	node "1" "Knocks: {{ knocks }}" {
		option "Knock" { knocks = knocks + 1 }
		option "Open" -> "2"
	}
	node "2" "Nothing behind the door."
}
`

func newPlayer(t *testing.T) *storytree.Player {
	t.Helper()
	host := storytree.New()
	t.Cleanup(func() { _ = host.Close() })
	st, err := host.EvaluateStory(context.Background(), "door.story", door)
	require.NoError(t, err)
	p, err := host.NewPlayer(st)
	require.NoError(t, err)
	return p
}

func TestRunner_ReadsToTheEnd(t *testing.T) {
	out := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithInputHandler(
		runner.NewTextHandler(strings.NewReader("1\ndance\nopen\n"), out),
	))

	state, err := r.Run(context.Background(), newPlayer(t))
	require.NoError(t, err)
	assert.Equal(t, "2", state.CurrentNodeID)
	assert.Equal(t, domain.StatusTerminated, state.Status)
	assert.Equal(t, float64(1), state.Vars["knocks"])

	text := out.String()
	assert.Contains(t, text, "Knocks: 0")
	assert.Contains(t, text, "Knocks: 1")
	assert.Contains(t, text, "1. Knock")
	assert.Contains(t, text, `"dance" is not one of the options.`)
	assert.Contains(t, text, "Nothing behind the door.")
	assert.Contains(t, text, "The End.")
}

func TestRunner_QuitAndEOF(t *testing.T) {
	for _, input := range []string{"1\nquit\n", "1\n"} {
		r := runner.NewRunner(runner.WithInputHandler(
			runner.NewTextHandler(strings.NewReader(input), &bytes.Buffer{}),
		))
		state, err := r.Run(context.Background(), newPlayer(t))
		require.NoError(t, err)
		assert.Equal(t, "1", state.CurrentNodeID)
		assert.Equal(t, domain.StatusActive, state.Status)
	}
}

func TestRunner_ResumesSession(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewManager(memory.NewStore())
	player := newPlayer(t)

	first := runner.NewRunner(
		runner.WithSessions(sessions),
		runner.WithSessionID("reader"),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("1\n1\nexit\n"), &bytes.Buffer{})),
	)
	_, err := first.Run(ctx, player)
	require.NoError(t, err)

	saved, err := sessions.Load(ctx, "reader")
	require.NoError(t, err)
	assert.Equal(t, float64(2), saved.Vars["knocks"])

	out := &bytes.Buffer{}
	second := runner.NewRunner(
		runner.WithSessions(sessions),
		runner.WithSessionID("reader"),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("2\n"), out)),
	)
	state, err := second.Run(ctx, player)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Knocks: 2")
	assert.True(t, state.Done())

	saved, err = sessions.Load(ctx, "reader")
	require.NoError(t, err)
	assert.Equal(t, "2", saved.CurrentNodeID)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.NewRunner(runner.WithInputHandler(
		runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{}),
	))
	_, err := r.Run(ctx, newPlayer(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithInputHandler(
		runner.NewJSONHandler(strings.NewReader("1\n\"Open\"\n"), out),
	))
	state, err := r.Run(context.Background(), newPlayer(t))
	require.NoError(t, err)
	assert.Equal(t, "2", state.CurrentNodeID)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"type":"REQUEST_CHOICE"`)
	assert.Contains(t, lines[3], `"The End."`)
}

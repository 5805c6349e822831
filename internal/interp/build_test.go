package interp

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/storytree/internal/testutils"
	"github.com/aretw0/storytree/pkg/adapters/memory"
	"github.com/aretw0/storytree/pkg/dsl"
	"github.com/aretw0/storytree/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, in *Interpreter, src string) ([]*story.Story, error) {
	t.Helper()
	script, err := dsl.Parse("test.story", src)
	require.NoError(t, err)
	return in.Build(context.Background(), script)
}

func TestBuild_SingleNode(t *testing.T) {
	stories, err := build(t, New(Config{}), `story "s" { node "only" "text" }`)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Len(t, stories[0].Nodes, 1)
	assert.Empty(t, stories[0].Edges())
}

func TestBuild_Properties(t *testing.T) {
	env := story.NewEnvironment()
	stories, err := build(t, New(Config{Env: env}), `
prefix = "ch"
story prefix + "1" {
	title = "Chapter " + str(1)
	author = "Anon"
	var gold = 10
	shared deaths = 0
	gold = gold * 2
	node 1 "one" { option "next" -> 2 }
	node 2 "two"
}
story { node "x" }
`)
	require.NoError(t, err)
	require.Len(t, stories, 2)

	s := stories[0]
	assert.Equal(t, "ch1", s.ID)
	assert.Equal(t, "Chapter 1", s.Title)
	assert.Equal(t, "Anon", s.Author)
	assert.Equal(t, float64(20), s.Vars["gold"])
	id, err := s.InitialNodeID()
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	assert.Equal(t, []story.Edge{{From: "1", To: "2", Option: 0, Label: "next"}}, s.Edges())

	deaths, ok := env.Get("deaths")
	require.True(t, ok)
	assert.Equal(t, float64(0), deaths)

	assert.Equal(t, "test", stories[1].ID, "unnamed stories take the script name")
}

func TestBuild_SharedKeepsExistingValue(t *testing.T) {
	env := story.NewEnvironment()
	env.Set("deaths", float64(3))
	_, err := build(t, New(Config{Env: env}), `story "s" { shared deaths = 0 node "1" }`)
	require.NoError(t, err)

	v, _ := env.Get("deaths")
	assert.Equal(t, float64(3), v)
}

func TestBuild_FailureLeavesSharedUntouched(t *testing.T) {
	env := story.NewEnvironment()
	env.Set("deaths", float64(3))
	_, err := build(t, New(Config{Env: env}), `
story "s" {
	shared deaths = 0
	shared lives = 9
	deaths = deaths + 1
	node "1" { option "x" -> "nowhere" }
}`)
	require.Error(t, err)

	v, _ := env.Get("deaths")
	assert.Equal(t, float64(3), v)
	_, ok := env.Get("lives")
	assert.False(t, ok)
}

func TestBuild_SharedWritesCommitOnSuccess(t *testing.T) {
	env := story.NewEnvironment()
	env.Set("deaths", float64(3))
	_, err := build(t, New(Config{Env: env}), `
story "s" {
	shared lives = 9
	lives = lives - 1
	deaths = deaths + 1
	node "1"
}`)
	require.NoError(t, err)

	v, _ := env.Get("deaths")
	assert.Equal(t, float64(4), v)
	v, _ = env.Get("lives")
	assert.Equal(t, float64(8), v)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		cause error
		msg   string
	}{
		{"unknown target", `story "s" { node "1" { option "x" -> "nope" } }`, story.ErrUnknownNode, `leads to "nope"`},
		{"unknown goto", `story "s" { node "1" { option "x" { goto "nope" } } }`, story.ErrUnknownNode, `jumps to "nope"`},
		{"unknown start", `story "s" { start = "z" node "1" }`, story.ErrUnknownNode, `starts at "z"`},
		{"duplicate node", `story "s" { node "1" node "1" }`, story.ErrDuplicateNode, "duplicate node"},
		{"empty node id", `story "s" { node "" "a" }`, story.ErrEmptyNodeID, "must not be empty"},
		{"duplicate story", `story "s" { node "1" } story "s" { node "1" }`, story.ErrDuplicateStory, "identical IDs"},
		{"forced failure", `fail "on purpose"`, story.ErrForcedFailure, "on purpose"},
		{"goto outside action", `story "s" { node "1" { on reach { goto "1" } } }`, errGotoOutsideAction, "only allowed inside option actions"},
		{"close while loading", `close`, story.ErrAborted, "aborted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stories, err := build(t, New(Config{}), tt.src)
			require.Error(t, err)
			assert.Nil(t, stories)

			var evalErr *story.EvaluationError
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, story.PhaseBuild, evalErr.Phase)
			assert.ErrorIs(t, err, tt.cause)
			assert.Contains(t, evalErr.Report(), tt.msg)
		})
	}
}

func TestBuild_UndefinedVariableHasPosition(t *testing.T) {
	_, err := build(t, New(Config{}), "story \"s\" {\n  title = missing\n}")
	var evalErr *story.EvaluationError
	require.True(t, errors.As(err, &evalErr))
	require.NotEmpty(t, evalErr.Diagnostics)
	assert.Equal(t, 2, evalErr.Diagnostics[0].Pos.Line)
	assert.Contains(t, evalErr.Diagnostics[0].Message, `undefined variable "missing"`)
}

func TestBuild_RequireCapability(t *testing.T) {
	_, err := build(t, New(Config{}), `require common`)
	var incompatible *story.IncompatibleEngineError
	require.True(t, errors.As(err, &incompatible))
	assert.Equal(t, "common", incompatible.Required)

	_, err = build(t, New(Config{Engine: &testutils.ScriptedEngine{}}), `require common story "s" { node "1" }`)
	assert.NoError(t, err)
}

func TestBuild_EngineStatements(t *testing.T) {
	eng := &testutils.ScriptedEngine{
		Answers:   []string{"Ada"},
		Picks:     []string{"Continue", "Brave"},
		Resources: map[string]string{"bg.png": "png"},
	}
	stories, err := build(t, New(Config{Engine: eng}), `
load resources
background "bg.png"
font "merriweather"
nsfw "gore"
ask "Name?" -> name
choose mood = "How do you feel?" {
	title "Mood"
	choice "Brave" color "green" yields "brave"
	choice "Scared" yields "scared"
}
warn "careful " + name
story "s" {
	title = name + " is " + mood
	node "1"
}
`)
	require.NoError(t, err)
	assert.True(t, eng.Loaded)
	require.NotNil(t, eng.Background)
	assert.Equal(t, "bg.png", eng.Background.Name())
	assert.Equal(t, story.FontMerriweather, eng.Font)
	require.Len(t, eng.Choices, 2)
	assert.Equal(t, "NSFW Warning", eng.Choices[0].Title)
	assert.Contains(t, eng.Choices[0].Text, "- gore")
	assert.Equal(t, "green", eng.Choices[1].Options[0].Color)
	assert.Equal(t, []string{"careful Ada"}, eng.Warnings)
	assert.Equal(t, "Ada is brave", stories[0].Title)
	assert.False(t, eng.Closed)
}

func TestBuild_NsfwExitAborts(t *testing.T) {
	eng := &testutils.ScriptedEngine{Picks: []string{"Exit"}}
	_, err := build(t, New(Config{Engine: eng}), `nsfw story "s" { node "1" }`)
	assert.ErrorIs(t, err, story.ErrAborted)
	assert.True(t, eng.Closed)
}

func TestBuild_ChooseMissingYield(t *testing.T) {
	eng := &testutils.ScriptedEngine{Picks: []string{""}}
	_, err := build(t, New(Config{Engine: eng}), `
choose x = "Pick" {
	cancellable
	choice "A" yields 1
}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not yield any value when cancelled")
}

func TestBuild_Imports(t *testing.T) {
	resolver := memory.NewResolver(map[string]string{
		"tales/cave.story.txt": "title = Cave\n[1]\nDark.\n{Out} 2\n[2]\nLight.\n",
	})
	in := New(Config{Resolver: resolver})

	script, err := dsl.Parse("tales/main.story", `
import "cave.story.txt" {
	author = "Anon"
	node "3" "Extra"
}
import """
	[a]
	Inline
	""" as "inline"
`)
	require.NoError(t, err)
	stories, err := in.Build(context.Background(), script)
	require.NoError(t, err)
	require.Len(t, stories, 2)

	cave := stories[0]
	assert.Equal(t, "cave", cave.ID)
	assert.Equal(t, "Cave", cave.Title)
	assert.Equal(t, "Anon", cave.Author)
	assert.Len(t, cave.Nodes, 3)
	assert.Len(t, cave.Edges(), 1)

	assert.Equal(t, "inline", stories[1].ID)
}

func TestBuild_ImportWithoutResolver(t *testing.T) {
	_, err := build(t, New(Config{}), `import "cave.story.txt"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source resolver")
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	script, err := dsl.Parse("x", `story "s" { node "1" }`)
	require.NoError(t, err)
	_, err = New(Config{}).Build(ctx, script)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultStoryID(t *testing.T) {
	assert.Equal(t, "cave", DefaultStoryID("a/b/cave.story"))
	assert.Equal(t, "cave", DefaultStoryID("cave.story.txt"))
	assert.Equal(t, "cave", DefaultStoryID("cave.st"))
	assert.Equal(t, "story", DefaultStoryID(""))
}

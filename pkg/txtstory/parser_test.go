package txtstory

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/storytree/pkg/dsl/ast"
	"github.com/aretw0/storytree/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cave = `// A tiny story
title = The Cave
author = Anon
initialNode = entrance

[entrance]
You stand at the mouth of a cave.

It smells of moss.
{Go in} inside
{Run away}   outside

[inside]
It is dark.

[outside]
The sun is shining.
`

func bodyOf(t *testing.T, n *story.Node) string {
	t.Helper()
	lit, ok := n.Body.(*ast.StringLit)
	require.True(t, ok)
	return lit.Value
}

func TestParse(t *testing.T) {
	s, err := Parse("tales/cave.story.txt", strings.NewReader(cave))
	require.NoError(t, err)

	assert.Equal(t, "cave", s.ID)
	assert.Equal(t, "The Cave", s.Title)
	assert.Equal(t, "Anon", s.Author)
	assert.Equal(t, "entrance", s.Start)
	require.Len(t, s.Nodes, 3)

	entrance, ok := s.Node("entrance")
	require.True(t, ok)
	assert.Equal(t, "You stand at the mouth of a cave.\n\nIt smells of moss.", bodyOf(t, entrance))
	require.Len(t, entrance.Options, 2)
	assert.Equal(t, "inside", entrance.Options[0].Target)
	assert.Equal(t, "outside", entrance.Options[1].Target)

	outside, _ := s.Node("outside")
	assert.Equal(t, "The sun is shining.", bodyOf(t, outside))
	assert.Empty(t, outside.Options)

	assert.Len(t, s.Edges(), 2)
	require.NoError(t, s.Validate())
}

func TestParse_PropertiesOnlyBeforeFirstNode(t *testing.T) {
	s, err := Parse("x.story.txt", strings.NewReader("[1]\ntitle = Not a title\n"))
	require.NoError(t, err)
	assert.Empty(t, s.Title)

	first, _ := s.Node("1")
	assert.Equal(t, "title = Not a title", bodyOf(t, first))
}

func TestParse_UnknownTarget(t *testing.T) {
	_, err := Parse("broken.story.txt", strings.NewReader("[a]\nText\n{Go} nowhere\n"))
	require.Error(t, err)

	var evalErr *story.EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, story.PhaseBuild, evalErr.Phase)
	require.Len(t, evalErr.Diagnostics, 1)
	assert.Equal(t, 3, evalErr.Diagnostics[0].Pos.Line)
	assert.ErrorIs(t, err, story.ErrUnknownNode)
}

func TestParse_DuplicateNode(t *testing.T) {
	_, err := Parse("dup.story.txt", strings.NewReader("[a]\none\n[a]\ntwo\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, story.ErrDuplicateNode)
}

func TestParse_UnknownInitialNode(t *testing.T) {
	_, err := Parse("x.story.txt", strings.NewReader("initialNode = z\n[a]\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, story.ErrNoInitialNode)
}

func TestParse_InvalidEncoding(t *testing.T) {
	_, err := Parse("bytes.story.txt", strings.NewReader("[a]\nfine\n\xff\xfe\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEncoding)

	var evalErr *story.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	require.Len(t, evalErr.Diagnostics, 1)
	assert.Equal(t, 3, evalErr.Diagnostics[0].Pos.Line)
}

func TestStoryID(t *testing.T) {
	assert.Equal(t, "cave", StoryID("/a/b/cave.story.txt"))
	assert.Equal(t, "notes", StoryID("notes.txt"))
	assert.Equal(t, "script.story", StoryID("script.story"))
	assert.True(t, IsTextStory("a/B.STORY.TXT"))
	assert.False(t, IsTextStory("a/b.story"))
}

package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/presentation/graph"
	"github.com/aretw0/storytree/pkg/story"
)

func evaluate(t *testing.T, src string) *story.Story {
	t.Helper()
	host := storytree.New()
	defer host.Close()
	s, err := host.EvaluateStory(context.Background(), "graph.story", src)
	require.NoError(t, err)
	return s
}

func TestMermaid(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
		excludes []string
	}{
		{
			name: "Initial Node Shape",
			src:  `story { node "a" { option "x" -> "b" } node "b" { option "back" -> "a" } }`,
			contains: []string{
				`n0(("a"))`,
				`n1["b"]`,
			},
		},
		{
			name: "Ending Shape",
			src:  `story { node "1" { option "go" -> "last" } node "last" "The end." }`,
			contains: []string{
				`n1(["last"])`,
			},
		},
		{
			name: "Labelled Edges",
			src:  `story { node "1" { option "Open the door" -> "2" } node "2" }`,
			contains: []string{
				`n0 -- "Open the door" --> n1`,
			},
		},
		{
			name: "Goto Edges Are Dotted",
			src:  `story { node "1" { option "Jump" { goto "2" } } node "2" }`,
			contains: []string{
				`n0 -. "Jump" .-> n1`,
			},
		},
		{
			name: "Reserved Words Stay In Labels",
			src:  `story { node "room-1.a" { option "x" -> "end" } node "end" }`,
			contains: []string{
				`n0(("room-1.a"))`,
				`n1(["end"])`,
				`n0 -- "x" --> n1`,
			},
		},
		{
			name: "Similar IDs Stay Distinct",
			src:  `story { node "a.b" { option "x" -> "a_b" } node "a_b" { option "y" -> "a.b" } }`,
			contains: []string{
				`n0(("a.b"))`,
				`n1["a_b"]`,
				`n0 -- "x" --> n1`,
				`n1 -- "y" --> n0`,
			},
		},
		{
			name: "Punctuation In IDs",
			src:  `story { node "x(y)" { option "Say \"hi\"" -> "k:[v]" } node "k:[v]" }`,
			contains: []string{
				`n0(("x(y)"))`,
				`n1(["k:[v]"])`,
				`n0 -- "Say #quot;hi#quot;" --> n1`,
			},
			excludes: []string{
				`x(y)((`,
			},
		},
		{
			name: "Reload Options Have No Edge",
			src:  `story { node "1" { option "Wait" } }`,
			excludes: []string{
				"-->",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.Mermaid(evaluate(t, tt.src), nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestMermaid_OverlayIgnoresUnknownNodes(t *testing.T) {
	s := evaluate(t, `story { node "1" }`)
	got := graph.Mermaid(s, &graph.Overlay{VisitedNodes: []string{"gone"}, CurrentNode: "gone"})
	assert.NotContains(t, got, "class ")
}

func TestMermaid_Overlay(t *testing.T) {
	s := evaluate(t, `story { node "1" { option "x" -> "2" } node "2" }`)
	got := graph.Mermaid(s, &graph.Overlay{
		VisitedNodes: []string{"1", "1", "2"},
		CurrentNode:  "2",
	})

	assert.Contains(t, got, "classDef visited")
	assert.Equal(t, 1, strings.Count(got, "class n0 visited;"))
	assert.Contains(t, got, "class n1 current;")
}

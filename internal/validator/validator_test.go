package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/validator"
	"github.com/aretw0/storytree/pkg/story"
)

func evaluate(t *testing.T, script string) *story.Story {
	t.Helper()
	host := storytree.New()
	t.Cleanup(func() { _ = host.Close() })
	st, err := host.EvaluateStory(context.Background(), "test.story", script)
	require.NoError(t, err)
	return st
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		warnings []string
	}{
		{
			name: "clean",
			script: `story "a" {
				node "1" "One" { option "Next" -> "2" }
				node "2" "Two"
			}`,
		},
		{
			name: "unreachable",
			script: `story "a" {
				node "1" "One" { option "Next" -> "2" }
				node "2" "Two"
				node "island" "Nobody comes here"
			}`,
			warnings: []string{"island"},
		},
		{
			name: "goto counts as a link",
			script: `story "a" {
				node "1" "One" { option "Jump" { goto "2" } }
				node "2" "Two"
			}`,
		},
		{
			name: "dead end",
			script: `story "a" {
				var n = 0
				node "1" "One" { option "Go" -> "loop" }
				node "loop" "Round and round" { option "Again" { n = n + 1 } }
			}`,
			warnings: []string{"loop"},
		},
		{
			name: "close escapes",
			script: `story "a" {
				node "1" "One" { option "Stop" { close } }
			}`,
		},
		{
			name: "explicit start",
			script: `story "a" {
				start = "b"
				node "a" "Skipped"
				node "b" "Begins here"
			}`,
			warnings: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validator.Validate(evaluate(t, tt.script))
			assert.Zero(t, r.Errors())

			var nodes []string
			for _, i := range r.Issues {
				assert.Equal(t, story.SeverityWarning, i.Severity)
				nodes = append(nodes, i.NodeID)
			}
			assert.Equal(t, tt.warnings, nodes)

			assert.NoError(t, r.Err(false))
			if len(tt.warnings) > 0 {
				assert.Error(t, r.Err(true))
			} else {
				assert.NoError(t, r.Err(true))
			}
		})
	}
}

func TestValidate_BrokenLink(t *testing.T) {
	st := story.New("broken")
	require.NoError(t, st.AddNode(&story.Node{ID: "1", Options: []*story.Option{{Target: "ghost"}}}))

	r := validator.Validate(st)
	require.Equal(t, 1, r.Errors())
	assert.Equal(t, "1", r.Issues[0].NodeID)

	err := r.Err(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "ghost"`)
	assert.Contains(t, err.Error(), "found 1 errors")
}

func TestValidate_Empty(t *testing.T) {
	r := validator.Validate(story.New("empty"))
	require.Equal(t, 1, r.Errors())
	assert.Contains(t, r.Err(false).Error(), story.ErrNoInitialNode.Error())
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storytree/internal/config"
	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/pkg/domain"
)

const doorStory = `
story "door" {
	title = "The Door"
	var knocks = 0
	var name = ""

	node "1" "A door. Knocks: {{ knocks }}" {
		option "Knock" { knocks = knocks + 1 }
		option "Sign" {
			ask "Your name?" -> name
			goto "signed"
		}
		option "Open" -> "2"
	}
	node "signed" "Welcome, {{ name }}." {
		option "Back" -> "1"
	}
	node "2" "Behind the door there is nothing."
}
`

func writeStory(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func play(t *testing.T, cfg *config.Config, opts PlayOptions, input string) string {
	t.Helper()
	var out bytes.Buffer
	opts.In = strings.NewReader(input)
	opts.Out = &out
	require.NoError(t, Play(context.Background(), cfg, opts, logging.NewNop()))
	return out.String()
}

func TestPlay_ReadsToTheEnd(t *testing.T) {
	path := writeStory(t, t.TempDir(), "door.story", doorStory)

	out := play(t, config.Default(), PlayOptions{Path: path}, "1\n3\n")

	assert.Contains(t, out, "Knocks: 0")
	assert.Contains(t, out, "Knocks: 1")
	assert.Contains(t, out, "Behind the door there is nothing.")
	assert.Contains(t, out, "The End.")
	assert.Contains(t, out, "Finished at '2' node.")
	assert.NotContains(t, out, "storytree", "no banner outside a terminal")
}

func TestPlay_AsksThroughTheTerminal(t *testing.T) {
	path := writeStory(t, t.TempDir(), "door.story", doorStory)

	out := play(t, config.Default(), PlayOptions{Path: path}, "Sign\nAda\n")

	assert.Contains(t, out, "Your name?")
	assert.Contains(t, out, "Welcome, Ada.")
	assert.Contains(t, out, "Finished at 'signed' node.")
}

func TestPlay_ResumesSession(t *testing.T) {
	dir := t.TempDir()
	path := writeStory(t, dir, "door.story", doorStory)

	cfg := config.Default()
	cfg.Store.Driver = config.DriverFile
	cfg.Store.Path = filepath.Join(dir, "sessions")
	opts := PlayOptions{Path: path, SessionID: "reader"}

	out := play(t, cfg, opts, "1\n1\n")
	assert.Contains(t, out, "Session 'reader' active.")
	assert.Contains(t, out, "Knocks: 2")

	out = play(t, cfg, opts, "")
	assert.Contains(t, out, "Knocks: 2", "the reading goes on where it stopped")

	opts.Fresh = true
	out = play(t, cfg, opts, "")
	assert.Contains(t, out, "Knocks: 0")
	assert.NotContains(t, out, "Knocks: 2")
}

func TestPlay_JSON(t *testing.T) {
	path := writeStory(t, t.TempDir(), "door.story", doorStory)

	out := play(t, config.Default(), PlayOptions{Path: path, JSON: true}, "3\n")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	var first []domain.ActionRequest
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NotEmpty(t, first)
	assert.Contains(t, lines[1], "Behind the door")
	assert.Contains(t, lines[2], "The End.")
}

func TestPlay_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := writeStory(t, dir, "broken.story", `story "b" { node "1" { option "x" -> "nowhere" } }`)
	door := writeStory(t, dir, "door.story", doorStory)

	var out bytes.Buffer
	err := Play(context.Background(), config.Default(), PlayOptions{Path: broken, In: strings.NewReader(""), Out: &out}, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Story building failed")

	err = Play(context.Background(), config.Default(), PlayOptions{Path: door, StoryID: "window", In: strings.NewReader(""), Out: &out}, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

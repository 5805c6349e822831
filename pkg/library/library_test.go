package library_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/pkg/adapters/file"
	"github.com/aretw0/storytree/pkg/adapters/memory"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/library"
	"github.com/aretw0/storytree/pkg/session"
	"github.com/aretw0/storytree/pkg/story"
)

const door = `
story "door" {
	title = "The Door"
	var knocks = 0

	node "1" "A door. Knocks: {{ knocks }}" {
		option "Knock" { knocks = knocks + 1 }
		option "Open" -> "2"
	}
	node "2" "Behind the door there is nothing."
}
`

const well = `title = The Well
author = Anonymous

[1]
You look into the well.
{Jump} 2

[2]
Splash.
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newLibrary(t *testing.T) (*library.Library, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "door.story", door)
	writeFile(t, dir, "tales/well.story.txt", well)

	host := storytree.New()
	t.Cleanup(func() { _ = host.Close() })
	lib := library.New(host, session.NewManager(memory.NewStore()))
	require.NoError(t, lib.Load(context.Background(), dir))
	return lib, dir
}

func TestLibrary_Load(t *testing.T) {
	lib, dir := newLibrary(t)

	stories := lib.Stories()
	require.Len(t, stories, 2)
	assert.Equal(t, "door", stories[0].ID)
	assert.Equal(t, "The Door", stories[0].Title)
	assert.Equal(t, 2, stories[0].Nodes)
	assert.Equal(t, "well", stories[1].ID)
	assert.Equal(t, "Anonymous", stories[1].Author)
	assert.Empty(t, lib.Failures())
	assert.Equal(t, []string{dir}, lib.Sources())

	s, err := lib.Story("well")
	require.NoError(t, err)
	assert.Len(t, s.Edges(), 1)

	_, err = lib.Story("missing")
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

func TestLibrary_SessionFlow(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	view, err := lib.Start(ctx, "door", "")
	require.NoError(t, err)
	sid := view.State.SessionID
	require.NotEmpty(t, sid)
	assert.False(t, view.Terminal)
	assert.Equal(t, domain.ActionRenderContent, view.Actions[0].Type)
	assert.Equal(t, "A door. Knocks: 0", view.Actions[0].Payload)

	view, diff, err := lib.Choose(ctx, sid, 1)
	require.NoError(t, err)
	assert.Equal(t, "A door. Knocks: 1", view.Actions[0].Payload)
	require.NotNil(t, diff)
	assert.Equal(t, float64(1), diff.Vars["knocks"])

	// Resuming returns the stored reading.
	view, err = lib.Start(ctx, "door", sid)
	require.NoError(t, err)
	assert.Equal(t, float64(1), view.State.Vars["knocks"])

	_, _, err = lib.Choose(ctx, sid, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)

	view, _, err = lib.Choose(ctx, sid, "open")
	require.NoError(t, err)
	assert.True(t, view.Terminal)
	assert.Equal(t, domain.StatusTerminated, view.State.Status)

	view, err = lib.Render(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "2", view.State.CurrentNodeID)

	sessions, err := lib.Sessions(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sid)

	require.NoError(t, lib.Delete(ctx, sid))
	_, err = lib.Render(ctx, sid)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, lib.Delete(ctx, sid), domain.ErrSessionNotFound)
}

const gold = `
story "gold" {
	shared gold = 0
	node "1" "Gold: {{ gold }}" {
		option "Dig" { gold = gold + 10 }
	}
}
`

func TestLibrary_SharedPropertiesPerReading(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gold.story", gold)
	ctx := context.Background()

	host := storytree.New()
	defer host.Close()
	store := file.NewStore(filepath.Join(dir, "sessions"))
	lib := library.New(host, session.NewManager(store))
	require.NoError(t, lib.Load(ctx, dir))

	_, err := lib.Start(ctx, "gold", "alice")
	require.NoError(t, err)
	view, diff, err := lib.Choose(ctx, "alice", "Dig")
	require.NoError(t, err)
	assert.Equal(t, "Gold: 10", view.Actions[0].Payload)
	assert.Equal(t, float64(10), view.State.Shared["gold"])
	require.NotNil(t, diff)
	assert.Equal(t, float64(10), diff.Shared["gold"])

	view, err = lib.Start(ctx, "gold", "bob")
	require.NoError(t, err)
	assert.Equal(t, "Gold: 0", view.Actions[0].Payload)
	assert.NotContains(t, view.State.Vars, "gold")

	v, _ := host.Environment().Get("gold")
	assert.Equal(t, float64(0), v, "readings never write to the host")

	// The reading's copy survives the store.
	stored, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, float64(10), stored.Shared["gold"])
	view, err = lib.Render(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Gold: 10", view.Actions[0].Payload)
}

func TestLibrary_UnknownStory(t *testing.T) {
	lib, _ := newLibrary(t)
	_, err := lib.Start(context.Background(), "missing", "")
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

func TestLibrary_Failures(t *testing.T) {
	lib, dir := newLibrary(t)
	writeFile(t, dir, "broken.story", `story "broken" { node }`)
	writeFile(t, dir, "copy.story", `story "door" { node "1" }`)

	require.NoError(t, lib.Reload(context.Background()))
	assert.Len(t, lib.Stories(), 2)

	failures := lib.Failures()
	require.Len(t, failures, 2)
	var evalErr *story.EvaluationError
	assert.ErrorAs(t, failures[0].Err, &evalErr)
	assert.Equal(t, filepath.Join(dir, "broken.story"), failures[0].Path)
	assert.ErrorIs(t, failures[1].Err, story.ErrDuplicateStory)
}

func TestLibrary_LoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "door.story", door)

	host := storytree.New()
	defer host.Close()
	lib := library.New(host, session.NewManager(memory.NewStore()))
	require.NoError(t, lib.Load(context.Background(), p))
	require.Len(t, lib.Stories(), 1)
	assert.Equal(t, p, lib.Stories()[0].Source)

	assert.Error(t, lib.Load(context.Background(), filepath.Join(dir, "missing")))
}

func TestLibrary_ClosedHost(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "door.story", door)

	host := storytree.New()
	require.NoError(t, host.Close())
	lib := library.New(host, session.NewManager(memory.NewStore()))
	assert.ErrorIs(t, lib.Load(context.Background(), dir), storytree.ErrHostClosed)
}

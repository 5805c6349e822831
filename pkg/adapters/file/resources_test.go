package file_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/aretw0/storytree/internal/testutils"
	"github.com/aretw0/storytree/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type foreign struct{}

func (foreign) Name() string                 { return "bg.png" }
func (foreign) Open() (io.ReadCloser, error) { return nil, nil }

func TestResources_Load(t *testing.T) {
	dir := testutils.SetupStoryDir(t, map[string]string{
		"cave.story":            "story {}",
		"resources/bg.png":      "png",
		"resources/music/a.ogg": "ogg",
	})
	res := file.ForStory(filepath.Join(dir, "cave.story"))

	_, err := res.Resource("bg.png")
	assert.ErrorIs(t, err, file.ErrResourcesNotLoaded)

	require.NoError(t, res.Load(context.Background()))
	assert.Equal(t, []string{"bg.png", "music/a.ogg"}, res.Names())

	r, err := res.Resource("music/a.ogg")
	require.NoError(t, err)
	rc, err := r.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "ogg", string(data))

	assert.True(t, res.Owns(r))
	assert.False(t, res.Owns(foreign{}))

	_, err = res.Resource("missing.png")
	assert.Error(t, err)
}

func TestResources_MissingFolder(t *testing.T) {
	res := file.NewResources(filepath.Join(t.TempDir(), "nothing"))
	require.NoError(t, res.Load(context.Background()))
	assert.Empty(t, res.Names())
}

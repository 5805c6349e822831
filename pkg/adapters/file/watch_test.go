package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/storytree/internal/testutils"
	"github.com/aretw0/storytree/pkg/adapters/file"
	"github.com/stretchr/testify/require"
)

func TestResolver_Watch(t *testing.T) {
	dir := testutils.SetupStoryDir(t, map[string]string{"a.story": `story "a" {}`})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := file.NewResolver(dir).Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.story"), []byte(`story "b" {}`), 0o644))

	select {
	case _, ok := <-ch:
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

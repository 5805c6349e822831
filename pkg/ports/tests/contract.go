// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"path"
	"testing"

	"github.com/aretw0/storytree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SourceResolverContract verifies that a resolver serves exactly files, a
// map from slash-separated source name to content.
func SourceResolverContract(t *testing.T, resolver ports.SourceResolver, files map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Resolve_Success", func(t *testing.T) {
		for name, content := range files {
			src, err := resolver.Resolve(ctx, "", name)
			require.NoError(t, err, "resolve %s", name)
			assert.Equal(t, content, string(src.Content), "content mismatch for %s", name)
			assert.NotEmpty(t, src.Name)
		}
	})

	t.Run("Resolve_Relative", func(t *testing.T) {
		for name, content := range files {
			src, err := resolver.Resolve(ctx, "", name)
			require.NoError(t, err)
			again, err := resolver.Resolve(ctx, src.Name, path.Base(name))
			require.NoError(t, err, "resolve %s relative to itself", name)
			assert.Equal(t, content, string(again.Content))
		}
	})

	t.Run("Resolve_NotFound", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "", "non-existent.story")
		assert.ErrorIs(t, err, ports.ErrSourceNotFound)
	})

	t.Run("List", func(t *testing.T) {
		names, err := resolver.List(ctx)
		require.NoError(t, err)
		assert.Len(t, names, len(files))
		for _, n := range names {
			assert.Contains(t, files, n, "unexpected source %s", n)
		}
	})
}

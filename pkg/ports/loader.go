package ports

import (
	"context"
	"errors"
)

// ErrSourceNotFound is returned when a resolver has no source for a path.
var ErrSourceNotFound = errors.New("source not found")

// Source is the raw text of a story file.
type Source struct {
	// Name identifies the source for later relative resolution and errors.
	Name    string
	Content []byte
}

// SourceResolver locates story sources: the files a library loads and the
// plain text stories a script imports.
type SourceResolver interface {
	// Resolve returns the source at path. Relative paths are resolved against
	// the directory of the source named from; an empty from means the root.
	Resolve(ctx context.Context, from, path string) (Source, error)

	// List returns the name of every story source available, sorted.
	List(ctx context.Context) ([]string, error)
}

// Watchable is implemented by resolvers that can notify about changes.
type Watchable interface {
	// Watch returns a channel signaled whenever a source changes. It is
	// closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

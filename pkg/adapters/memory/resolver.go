package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/storytree/pkg/ports"
)

// Resolver implements ports.SourceResolver over an in-memory file set.
type Resolver struct {
	files map[string][]byte
}

// NewResolver creates a resolver serving files, keyed by slash-separated name.
func NewResolver(files map[string]string) *Resolver {
	data := make(map[string][]byte, len(files))
	for name, content := range files {
		data[clean(name)] = []byte(content)
	}
	return &Resolver{files: data}
}

func clean(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// Resolve returns the source at p, relative to the directory of from.
func (r *Resolver) Resolve(_ context.Context, from, p string) (ports.Source, error) {
	name := p
	if !path.IsAbs(p) && from != "" {
		name = path.Join(path.Dir(from), p)
	}
	name = clean(name)
	content, ok := r.files[name]
	if !ok {
		return ports.Source{}, fmt.Errorf("%w: %s", ports.ErrSourceNotFound, name)
	}
	return ports.Source{Name: name, Content: content}, nil
}

// List returns every file name, sorted.
func (r *Resolver) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(r.files))
	for k := range r.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

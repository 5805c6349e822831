// Package file serves stories, resources and sessions from the local
// filesystem.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/storytree/pkg/ports"
	"github.com/aretw0/storytree/pkg/txtstory"
)

// ScriptExtension is the suffix of DSL story scripts.
const ScriptExtension = ".story"

// IsStoryFile reports whether name is a DSL script or a plain text story.
func IsStoryFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ScriptExtension) || strings.HasSuffix(lower, txtstory.Extension)
}

// Resolver implements ports.SourceResolver over a directory. Source names
// are slash-separated paths relative to the root; a resolver never serves
// files outside of it.
type Resolver struct {
	root string
}

// NewResolver creates a resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{root: dir}
}

// Root returns the directory served by the resolver.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve reads p relative to the directory of from.
func (r *Resolver) Resolve(_ context.Context, from, p string) (ports.Source, error) {
	name := path.Clean(filepath.ToSlash(p))
	if !path.IsAbs(name) && from != "" {
		name = path.Join(path.Dir(filepath.ToSlash(from)), name)
	}
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return ports.Source{}, fmt.Errorf("%w: %q", ports.ErrSourceNotFound, p)
	}

	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.Source{}, fmt.Errorf("%w: %s", ports.ErrSourceNotFound, name)
		}
		return ports.Source{}, fmt.Errorf("read %s: %w", name, err)
	}
	return ports.Source{Name: name, Content: data}, nil
}

// List walks the root and returns every story file, sorted. Hidden
// directories are skipped.
func (r *Resolver) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != r.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsStoryFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list stories in %s: %w", r.root, err)
	}
	sort.Strings(names)
	return names, nil
}

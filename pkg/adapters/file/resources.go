package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aretw0/storytree/pkg/story"
)

// ResourcesDir is the folder, next to a story, that holds its resources.
const ResourcesDir = "resources"

// ErrResourcesNotLoaded is returned by Resource before Load succeeded.
var ErrResourcesNotLoaded = errors.New("resources are not loaded")

// Resource is a file of a resources folder.
type Resource struct {
	name string
	path string
}

func (r *Resource) Name() string { return r.name }

// Path is the location of the resource on disk.
func (r *Resource) Path() string { return r.path }

func (r *Resource) Open() (io.ReadCloser, error) {
	return os.Open(r.path)
}

// Resources indexes the resources folder of a story. It is the resource
// half of a story.ResourceEngine.
type Resources struct {
	dir string

	mu    sync.RWMutex
	index map[string]*Resource
}

// NewResources serves the folder dir. Nothing is read until Load.
func NewResources(dir string) *Resources {
	return &Resources{dir: dir}
}

// ForStory returns the resources folder next to a story file.
func ForStory(storyPath string) *Resources {
	return NewResources(filepath.Join(filepath.Dir(storyPath), ResourcesDir))
}

// Load indexes every file of the folder. A missing folder loads nothing.
func (r *Resources) Load(ctx context.Context) error {
	index := make(map[string]*Resource)
	err := filepath.WalkDir(r.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == r.dir {
				return filepath.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.dir, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		index[name] = &Resource{name: name, path: p}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load resources from %s: %w", r.dir, err)
	}

	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
	return nil
}

// Resource returns a loaded resource.
func (r *Resources) Resource(name string) (story.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.index == nil {
		return nil, ErrResourcesNotLoaded
	}
	res, ok := r.index[filepath.ToSlash(name)]
	if !ok {
		return nil, fmt.Errorf("resource %q not found in %s", name, r.dir)
	}
	return res, nil
}

// Names lists the loaded resources, sorted.
func (r *Resources) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.index))
	for n := range r.index {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Owns reports whether res was served by r. Engines use it to reject
// resources from elsewhere.
func (r *Resources) Owns(res story.Resource) bool {
	fr, ok := res.(*Resource)
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index[fr.name] == fr
}

// Close drops the index.
func (r *Resources) Close() error {
	r.mu.Lock()
	r.index = nil
	r.mu.Unlock()
	return nil
}

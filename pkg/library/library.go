// Package library serves a set of stories loaded from disk to many
// concurrent readers. It indexes the stories by ID and keeps reading
// sessions in a StateStore through a session.Manager. The HTTP and MCP
// adapters are thin layers over a Library.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/pkg/adapters/file"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/session"
	"github.com/aretw0/storytree/pkg/story"
)

// Summary describes a loaded story.
type Summary struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Source string `json:"source"`
	Nodes  int    `json:"nodes"`
}

// Failure records a story file that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

// View is a session as the reader sees it.
type View struct {
	State    *domain.State          `json:"state"`
	Actions  []domain.ActionRequest `json:"actions"`
	Terminal bool                   `json:"terminal"`
}

type entry struct {
	summary Summary
	player  *storytree.Player
}

// Library is safe for concurrent use.
type Library struct {
	host     *storytree.Host
	sessions *session.Manager
	logger   *slog.Logger
	sources  []string

	mu       sync.RWMutex
	stories  map[string]*entry
	failures []Failure
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// New creates an empty library. The host and the session manager are
// borrowed: closing them is up to the caller.
func New(host *storytree.Host, sessions *session.Manager, opts ...Option) *Library {
	l := &Library{
		host:     host,
		sessions: sessions,
		logger:   logging.NewNop(),
		stories:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sources returns the paths given to the last Load.
func (l *Library) Sources() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.sources...)
}

// Load evaluates every story file found in paths (files or directory
// trees) and replaces the loaded set. Files that fail to evaluate, and
// stories whose ID was already taken, are skipped and reported by
// Failures. Load only fails when a path cannot be read at all.
func (l *Library) Load(ctx context.Context, paths ...string) error {
	var files []string
	for _, p := range paths {
		found, err := storyFiles(ctx, p)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	stories := make(map[string]*entry)
	var failures []Failure
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		loaded, err := l.host.EvaluateFile(ctx, f)
		if err != nil {
			if errors.Is(err, storytree.ErrHostClosed) {
				return err
			}
			l.logger.Warn("Story file skipped", "path", f, "err", err)
			failures = append(failures, Failure{Path: f, Err: err})
			continue
		}
		for _, st := range loaded {
			if prev, dup := stories[st.ID]; dup {
				err := fmt.Errorf("%w: %q also declared in %s", story.ErrDuplicateStory, st.ID, prev.summary.Source)
				l.logger.Warn("Story skipped", "path", f, "story", st.ID, "err", err)
				failures = append(failures, Failure{Path: f, Err: err})
				continue
			}
			player, err := l.host.NewPlayer(st)
			if err != nil {
				return err
			}
			stories[st.ID] = &entry{
				summary: Summary{ID: st.ID, Title: st.Title, Author: st.Author, Source: f, Nodes: len(st.Nodes)},
				player:  player,
			}
		}
	}

	l.mu.Lock()
	l.stories = stories
	l.failures = failures
	l.sources = append([]string(nil), paths...)
	l.mu.Unlock()

	l.logger.Info("Library loaded", "stories", len(stories), "failures", len(failures))
	return nil
}

// Reload loads the same paths again.
func (l *Library) Reload(ctx context.Context) error {
	return l.Load(ctx, l.Sources()...)
}

func storyFiles(ctx context.Context, p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("story source: %w", err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	names, err := file.NewResolver(p).List(ctx)
	if err != nil {
		return nil, err
	}
	files := make([]string, len(names))
	for i, n := range names {
		files[i] = filepath.Join(p, filepath.FromSlash(n))
	}
	return files, nil
}

// Failures returns the problems of the last Load.
func (l *Library) Failures() []Failure {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Failure(nil), l.failures...)
}

// Stories lists the loaded stories sorted by ID.
func (l *Library) Stories() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Summary, 0, len(l.stories))
	for _, e := range l.stories {
		out = append(out, e.summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Story returns a loaded story.
func (l *Library) Story(id string) (*story.Story, error) {
	e, err := l.entry(id)
	if err != nil {
		return nil, err
	}
	return e.player.Story(), nil
}

func (l *Library) entry(id string) (*entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	return e, nil
}

// Start begins a reading of a story. An empty sessionID gets a random one;
// an existing session of the same story is resumed.
func (l *Library) Start(ctx context.Context, storyID, sessionID string) (*View, error) {
	e, err := l.entry(storyID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state, loaded, err := l.sessions.LoadOrStart(ctx, sessionID, e.player)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Session started", "session_id", sessionID, "story", storyID, "resumed", loaded)
	return l.view(ctx, e, state)
}

// Render shows the current node of a session.
func (l *Library) Render(ctx context.Context, sessionID string) (*View, error) {
	state, err := l.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	e, err := l.entry(state.StoryID)
	if err != nil {
		return nil, err
	}
	return l.view(ctx, e, state)
}

// Choose selects an option of the current node of a session. The returned
// diff holds what the choice changed.
func (l *Library) Choose(ctx context.Context, sessionID string, input any) (*View, *domain.StateDiff, error) {
	var (
		prev, next *domain.State
		e          *entry
	)
	err := l.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		if prev, err = l.sessions.Store().Load(ctx, sessionID); err != nil {
			return err
		}
		if e, err = l.entry(prev.StoryID); err != nil {
			return err
		}
		if next, err = e.player.Navigate(ctx, prev, input); err != nil {
			return err
		}
		return l.sessions.Store().Save(ctx, sessionID, next)
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := l.view(ctx, e, next)
	if err != nil {
		return nil, nil, err
	}
	return view, domain.Diff(prev, next), nil
}

// Delete ends a session.
func (l *Library) Delete(ctx context.Context, sessionID string) error {
	if _, err := l.sessions.Load(ctx, sessionID); err != nil {
		return err
	}
	return l.sessions.Delete(ctx, sessionID)
}

// Sessions lists the stored session IDs.
func (l *Library) Sessions(ctx context.Context) ([]string, error) {
	return l.sessions.List(ctx)
}

func (l *Library) view(ctx context.Context, e *entry, state *domain.State) (*View, error) {
	actions, terminal, err := e.player.Render(ctx, state)
	if err != nil {
		return nil, err
	}
	return &View{State: state, Actions: actions, Terminal: terminal}, nil
}

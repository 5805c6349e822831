package storytree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/storytree/internal/interp"
	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/internal/runtime"
	"github.com/aretw0/storytree/pkg/adapters/file"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/dsl"
	"github.com/aretw0/storytree/pkg/ports"
	"github.com/aretw0/storytree/pkg/registry"
	"github.com/aretw0/storytree/pkg/story"
	"github.com/aretw0/storytree/pkg/txtstory"
)

// ErrHostClosed is returned by every Host method after Close.
var ErrHostClosed = errors.New("scripting host is closed")

// Player plays one story. See NewPlayer.
type Player = runtime.Player

// Host evaluates story scripts. It owns everything an evaluation touches:
// the engine, the shared environment, the registered functions and the
// source resolver. Nothing is kept in process-global state, so several
// hosts can live side by side.
//
// A Host is safe for concurrent use. It must be disposed with Close.
type Host struct {
	logger   *slog.Logger
	engine   story.BaseEngine
	resolver ports.SourceResolver
	registry *registry.Registry
	env      *story.Environment
	hooks    domain.LifecycleHooks
	ownEnv   bool

	mu     sync.RWMutex
	closed bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithEngine sets the engine scripts talk to. Defaults to a story.NopEngine
// that only logs warnings and errors.
func WithEngine(engine story.BaseEngine) Option {
	return func(h *Host) {
		h.engine = engine
	}
}

// WithResolver sets where imports are read from.
func WithResolver(resolver ports.SourceResolver) Option {
	return func(h *Host) {
		h.resolver = resolver
	}
}

// WithRegistry exposes host functions to scripts.
func WithRegistry(reg *registry.Registry) Option {
	return func(h *Host) {
		h.registry = reg
	}
}

// WithLifecycleHooks registers observability hooks on every player.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Host) {
		h.hooks = hooks
	}
}

// WithEnvironment shares an environment between hosts.
func WithEnvironment(env *story.Environment) Option {
	return func(h *Host) {
		h.env = env
	}
}

// New creates a scripting host.
func New(opts ...Option) *Host {
	h := &Host{}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	if h.engine == nil {
		h.engine = story.NopEngine{Logger: h.logger}
	}
	if h.env == nil {
		h.env = story.NewEnvironment()
		h.ownEnv = true
	}
	return h
}

// Engine returns the engine stories run against.
func (h *Host) Engine() story.BaseEngine {
	return h.engine
}

// Environment returns the shared properties of the host.
func (h *Host) Environment() *story.Environment {
	return h.env
}

func (h *Host) interpreter(resolver ports.SourceResolver) *interp.Interpreter {
	return interp.New(interp.Config{
		Engine:   h.engine,
		Env:      h.env,
		Registry: h.registry,
		Resolver: resolver,
		Logger:   h.logger,
	})
}

func (h *Host) check() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHostClosed
	}
	return nil
}

// Evaluate parses and builds script and returns every story it declares.
// name identifies the script in diagnostics and is the base for relative
// imports. On failure the error is a *story.EvaluationError and no story
// is returned.
func (h *Host) Evaluate(ctx context.Context, name, script string) ([]*story.Story, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.evaluate(ctx, h.interpreter(h.resolver), name, script)
}

func (h *Host) evaluate(ctx context.Context, in *interp.Interpreter, name, script string) ([]*story.Story, error) {
	h.logger.Debug("evaluating script", "name", name)

	parsed, err := dsl.Parse(name, script)
	if err != nil {
		return nil, parseError(name, err)
	}

	stories, err := in.Build(ctx, parsed)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("script evaluated", "name", name, "stories", len(stories))
	return stories, nil
}

// parseError converts syntax errors into an EvaluationError.
func parseError(name string, err error) error {
	evalErr := &story.EvaluationError{Phase: story.PhaseParse, Source: name, Err: err}
	var list dsl.ErrorList
	if errors.As(err, &list) {
		for _, se := range list {
			evalErr.Diagnostics = append(evalErr.Diagnostics, story.Diagnostic{
				Severity: story.SeverityError,
				Message:  se.Msg,
				Pos:      se.Pos,
			})
		}
	}
	return evalErr
}

// EvaluateStory evaluates script and returns its first story.
func (h *Host) EvaluateStory(ctx context.Context, name, script string) (*story.Story, error) {
	stories, err := h.Evaluate(ctx, name, script)
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, story.ErrNoStories
	}
	return stories[0], nil
}

// EvaluateFile reads a story file. Plain text stories (.story.txt, .txt)
// use the text parser; anything else is a DSL script whose imports are
// resolved next to the file unless a resolver was configured.
func (h *Host) EvaluateFile(ctx context.Context, path string) ([]*story.Story, error) {
	if err := h.check(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story file: %w", err)
	}

	if txtstory.IsTextStory(path) {
		s, err := txtstory.Parse(path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return []*story.Story{s}, nil
	}

	resolver, name := h.resolver, path
	if resolver == nil {
		resolver, name = file.NewResolver(filepath.Dir(path)), filepath.Base(path)
	}
	return h.evaluate(ctx, h.interpreter(resolver), name, string(data))
}

// NewPlayer creates a player for a story evaluated by this host.
func (h *Host) NewPlayer(st *story.Story) (*Player, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return runtime.NewPlayer(st, h.interpreter(h.resolver),
		runtime.WithLogger(h.logger.With("story", st.ID)),
		runtime.WithLifecycleHooks(h.hooks),
	), nil
}

// Close disposes the host: its own shared properties are dropped and
// closable collaborators (engine, resolver) are closed. Close is idempotent.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	if h.ownEnv {
		h.env.Reset()
	}

	var errs []error
	for _, c := range []any{h.engine, h.resolver} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

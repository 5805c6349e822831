// Package interp evaluates the syntax tree produced by package dsl.
//
// Evaluation has two phases. Build runs once per script: it executes the
// top-level and story-level statements and materializes every declared story.
// The runtime phase runs while a story is played: the player asks the
// interpreter to evaluate node bodies, option conditions and actions against
// a Session.
package interp

import (
	"log/slog"
	"maps"

	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/pkg/ports"
	"github.com/aretw0/storytree/pkg/registry"
	"github.com/aretw0/storytree/pkg/story"
)

// Config wires an Interpreter to its host.
type Config struct {
	Engine   story.BaseEngine
	Env      *story.Environment
	Registry *registry.Registry
	Resolver ports.SourceResolver
	Logger   *slog.Logger
}

// Interpreter is safe for concurrent use as long as its engine is.
type Interpreter struct {
	engine   story.BaseEngine
	env      *story.Environment
	registry *registry.Registry
	resolver ports.SourceResolver
	logger   *slog.Logger
}

// New creates an interpreter. Missing collaborators get harmless defaults.
func New(cfg Config) *Interpreter {
	in := &Interpreter{
		engine:   cfg.Engine,
		env:      cfg.Env,
		registry: cfg.Registry,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
	if in.logger == nil {
		in.logger = logging.NewNop()
	}
	if in.env == nil {
		in.env = story.NewEnvironment()
	}
	if in.engine == nil {
		in.engine = story.NopEngine{Logger: in.logger}
	}
	return in
}

// Engine returns the engine scripts talk to.
func (in *Interpreter) Engine() story.BaseEngine {
	return in.engine
}

// Message is a warning or error emitted by a script.
type Message struct {
	Level string
	Text  string
}

// Outcome reports what a block did besides mutating variables.
type Outcome struct {
	// Goto is the node selected by a goto statement, if any.
	Goto string
	// Closed is set when the script closed the story.
	Closed   bool
	Messages []Message
}

// Scope resolves and assigns variables.
type Scope interface {
	Lookup(name string) (any, bool)
	Assign(name string, value any)
}

// Session is what a script sees while a story is played.
type Session struct {
	Story   *story.Story
	Vars    map[string]any
	Shared  map[string]any
	History []string
}

// Lookup searches the story variables, then the shared properties.
func (s *Session) Lookup(name string) (any, bool) {
	if v, ok := s.Vars[name]; ok {
		return v, true
	}
	v, ok := s.Shared[name]
	return v, ok
}

// Assign updates a shared property when one exists with that name; every
// other name is a story variable. Only the session's copy changes.
func (s *Session) Assign(name string, value any) {
	if _, ok := s.Vars[name]; !ok {
		if _, shared := s.Shared[name]; shared {
			s.Shared[name] = value
			return
		}
	}
	s.Vars[name] = value
}

// NewSession prepares a session over copies of vars and shared.
func (in *Interpreter) NewSession(st *story.Story, vars, shared map[string]any, history []string) *Session {
	v := maps.Clone(vars)
	if v == nil {
		v = make(map[string]any)
	}
	sh := maps.Clone(shared)
	if sh == nil {
		sh = make(map[string]any)
	}
	return &Session{Story: st, Vars: v, Shared: sh, History: history}
}

// SharedDefaults copies the shared properties of the host. New readings
// start from it.
func (in *Interpreter) SharedDefaults() map[string]any {
	return in.env.Snapshot()
}

// buildScope is the scope of statements run while a script is built.
// Story variables win over shared properties, which win over script locals.
// Shared writes are staged and reach the environment only when the whole
// build succeeds.
type buildScope struct {
	story  *story.Story
	env    *story.Environment
	staged map[string]any
	locals map[string]any
}

func (b *buildScope) Lookup(name string) (any, bool) {
	if b.story != nil {
		if v, ok := b.story.Vars[name]; ok {
			return v, true
		}
	}
	if v, ok := b.staged[name]; ok {
		return v, true
	}
	if v, ok := b.env.Get(name); ok {
		return v, true
	}
	v, ok := b.locals[name]
	return v, ok
}

func (b *buildScope) Assign(name string, value any) {
	if b.story != nil {
		if _, ok := b.story.Vars[name]; ok {
			b.story.Vars[name] = value
			return
		}
	}
	if _, ok := b.staged[name]; ok {
		b.staged[name] = value
		return
	}
	if _, ok := b.env.Get(name); ok {
		b.staged[name] = value
		return
	}
	b.locals[name] = value
}

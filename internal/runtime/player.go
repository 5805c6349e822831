// Package runtime plays a materialized story.
//
// The Player is stateless with respect to sessions: every call receives a
// domain.State and returns a new one, so the same Player can serve many
// readers concurrently.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/storytree/internal/interp"
	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/ports"
	"github.com/aretw0/storytree/pkg/story"
)

var _ ports.StatelessPlayer = (*Player)(nil)

// Player runs the runtime code of one story.
type Player struct {
	story  *story.Story
	interp *interp.Interpreter
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Player) {
		p.hooks = hooks
	}
}

// NewPlayer creates a player for st. The interpreter must be the one the
// story was built with so that shared properties and the engine match.
func NewPlayer(st *story.Story, in *interp.Interpreter, opts ...Option) *Player {
	p := &Player{
		story:  st,
		interp: in,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Story returns the story being played.
func (p *Player) Story() *story.Story {
	return p.story
}

// Start creates a new reading at the initial node and runs its entry code.
func (p *Player) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	start, err := p.story.InitialNode()
	if err != nil {
		return nil, err
	}

	state := domain.NewState(sessionID, p.story.ID, start.ID)
	for k, v := range p.story.Vars {
		state.Vars[k] = v
	}
	state.Shared = p.interp.SharedDefaults()
	state.History = nil

	p.logger.Debug("story started", "story", p.story.ID, "session", sessionID, "node", start.ID)
	return p.enter(ctx, state, start)
}

// node returns the node the state points to.
func (p *Player) node(state *domain.State) (*story.Node, error) {
	n, ok := p.story.Node(state.CurrentNodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", story.ErrUnknownNode, state.CurrentNodeID)
	}
	return n, nil
}

// session exposes a state to the interpreter. States saved without shared
// properties get the host's current ones.
func (p *Player) session(state *domain.State) *interp.Session {
	shared := state.Shared
	if shared == nil {
		shared = p.interp.SharedDefaults()
	}
	return p.interp.NewSession(p.story, state.Vars, shared, state.History)
}

// runtimeError turns a script failure into an EvaluationError.
func (p *Player) runtimeError(err error) error {
	if err == nil {
		return nil
	}
	var evalErr *story.EvaluationError
	if errors.As(err, &evalErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return story.NewEvaluationError(story.PhaseRuntime, p.story.ID, interp.Position(err), err)
}

func messages(out *interp.Outcome) []domain.SystemMessage {
	if out == nil {
		return nil
	}
	msgs := make([]domain.SystemMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		level := domain.LevelWarning
		if m.Level == "error" {
			level = domain.LevelError
		}
		msgs = append(msgs, domain.SystemMessage{Level: level, Text: m.Text})
	}
	return msgs
}

func (p *Player) emitNodeEnter(ctx context.Context, state *domain.State, nodeID string) {
	if p.hooks.OnNodeEnter == nil {
		return
	}
	p.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.NewEventBase(domain.EventNodeEnter, state),
		NodeID:    nodeID,
	})
}

func (p *Player) emitNodeLeave(ctx context.Context, state *domain.State, nodeID string) {
	if p.hooks.OnNodeLeave == nil {
		return
	}
	p.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.NewEventBase(domain.EventNodeLeave, state),
		NodeID:    nodeID,
	})
}

func (p *Player) emitChoice(ctx context.Context, state *domain.State, ev domain.ChoiceEvent) {
	if p.hooks.OnChoice == nil {
		return
	}
	ev.EventBase = domain.NewEventBase(domain.EventChoice, state)
	p.hooks.OnChoice(ctx, &ev)
}

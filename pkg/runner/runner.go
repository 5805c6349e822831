package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/ports"
	"github.com/aretw0/storytree/pkg/session"
)

// DefaultSessionID names readings started without WithSessionID.
const DefaultSessionID = "local"

// Runner drives one reading of a story through an IOHandler.
type Runner struct {
	handler   IOHandler
	renderer  ContentRenderer
	logger    *slog.Logger
	sessions  *session.Manager
	sessionID string
}

// NewRunner creates a Runner. Without WithInputHandler it reads Stdin and
// writes Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:    logging.NewNop(),
		sessionID: DefaultSessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.renderer))
	}
	return r
}

// Run reads the story until it ends, the reader quits ("exit", "quit" or
// end of input) or ctx is cancelled. It returns the last state.
func (r *Runner) Run(ctx context.Context, player ports.StatelessPlayer) (*domain.State, error) {
	state, resumed, err := r.initialState(ctx, player)
	if err != nil {
		return nil, err
	}
	if resumed {
		r.logger.Info("Session resumed", "session_id", r.sessionID, "node_id", state.CurrentNodeID)
	}

	for {
		actions, terminal, err := player.Render(ctx, state)
		if err != nil {
			return state, fmt.Errorf("render error: %w", err)
		}
		if _, err := r.handler.Output(ctx, actions); err != nil {
			return state, fmt.Errorf("output error: %w", err)
		}
		if terminal {
			msg := "The End."
			if state.Status == domain.StatusClosed {
				msg = "The story was closed."
			}
			return state, r.handler.SystemOutput(ctx, msg)
		}

		next, err := r.step(ctx, player, state)
		if errors.Is(err, io.EOF) {
			r.logger.Debug("Reader quit", "session_id", r.sessionID, "node_id", state.CurrentNodeID)
			return state, nil
		}
		if err != nil {
			return state, err
		}
		state = next
	}
}

// step reads answers until one names a valid option.
func (r *Runner) step(ctx context.Context, player ports.StatelessPlayer, state *domain.State) (*domain.State, error) {
	for {
		input, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() == nil {
				return nil, err
			}
			return nil, ctx.Err()
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			return nil, io.EOF
		case "":
			continue
		}

		next, err := r.navigate(ctx, player, state, input)
		if errors.Is(err, domain.ErrInvalidChoice) {
			if err := r.handler.SystemOutput(ctx, fmt.Sprintf("%q is not one of the options.", input)); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("navigation error: %w", err)
		}
		return next, nil
	}
}

func (r *Runner) navigate(ctx context.Context, player ports.StatelessPlayer, state *domain.State, input string) (*domain.State, error) {
	if r.sessions == nil {
		return player.Navigate(ctx, state, input)
	}
	next, err := r.sessions.Advance(ctx, r.sessionID, player, input)
	if err == nil {
		r.logger.Debug("state saved", "session_id", r.sessionID, "node_id", next.CurrentNodeID)
	}
	return next, err
}

func (r *Runner) initialState(ctx context.Context, player ports.StatelessPlayer) (*domain.State, bool, error) {
	if r.sessions == nil {
		state, err := player.Start(ctx, r.sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create initial state: %w", err)
		}
		return state, false, nil
	}
	return r.sessions.LoadOrStart(ctx, r.sessionID, player)
}

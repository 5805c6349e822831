package runner

import (
	"log/slog"

	"github.com/aretw0/storytree/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithSessions persists every step through a session manager.
func WithSessions(m *session.Manager) Option {
	return func(r *Runner) {
		r.sessions = m
	}
}

// WithSessionID names the reading. With sessions configured an existing
// reading of the same ID is resumed.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithRenderer configures the content renderer of the default handler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.renderer = renderer
	}
}

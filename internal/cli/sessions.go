package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/storytree/internal/config"
)

// ListSessions prints the IDs of the stored sessions.
func ListSessions(ctx context.Context, cfg *config.Config, w io.Writer, logger *slog.Logger) error {
	p, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	ids, err := p.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession prints a stored state as indented JSON.
func InspectSession(ctx context.Context, cfg *config.Config, sessionID string, w io.Writer, logger *slog.Logger) error {
	p, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	state, err := p.Sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %q: %w", sessionID, err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// RemoveSessions deletes sessions, reporting each one.
func RemoveSessions(ctx context.Context, cfg *config.Config, ids []string, w io.Writer, logger *slog.Logger) error {
	p, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	var errs []error
	for _, id := range ids {
		if err := p.Sessions.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("remove %q: %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

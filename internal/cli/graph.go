package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/config"
	"github.com/aretw0/storytree/internal/presentation/graph"
)

// GraphOptions configures the graph command.
type GraphOptions struct {
	Path    string
	StoryID string
	// SessionID highlights the path of a stored reading.
	SessionID string
	Out       io.Writer
}

// Graph prints the Mermaid flowchart of a story.
func Graph(ctx context.Context, cfg *config.Config, opts GraphOptions, logger *slog.Logger) error {
	host := storytree.New(storytree.WithLogger(logger))
	defer host.Close()

	stories, err := host.EvaluateFile(ctx, opts.Path)
	if err != nil {
		return describe(err)
	}
	st, err := pick(stories, opts.StoryID)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if opts.SessionID != "" {
		p, err := OpenStore(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer p.Close()
		state, err := p.Sessions.Load(ctx, opts.SessionID)
		if err != nil {
			return fmt.Errorf("session %q: %w", opts.SessionID, err)
		}
		if state.StoryID != st.ID {
			return fmt.Errorf("session %q reads %q, not %q", opts.SessionID, state.StoryID, st.ID)
		}
		overlay = &graph.Overlay{VisitedNodes: state.History, CurrentNode: state.CurrentNodeID}
	}

	_, err = fmt.Fprint(opts.Out, graph.Mermaid(st, overlay))
	return err
}

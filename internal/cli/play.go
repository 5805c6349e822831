package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/config"
	"github.com/aretw0/storytree/internal/presentation/tui"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/runner"
	"github.com/aretw0/storytree/pkg/story"
)

// PlayOptions configures the play command.
type PlayOptions struct {
	Path    string
	StoryID string
	// SessionID makes the reading durable in the configured store.
	SessionID string
	// Fresh drops the session before starting.
	Fresh bool
	JSON  bool
	Quiet bool

	In  io.Reader
	Out io.Writer
}

// Play reads a story file in the terminal.
func Play(ctx context.Context, cfg *config.Config, opts PlayOptions, logger *slog.Logger) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	interactive := !opts.JSON && IsTerminal(opts.Out)

	if interactive && !opts.Quiet {
		tui.PrintBanner(opts.Out, storytree.Version)
	}

	var (
		handler runner.IOHandler
		reader  LineReader
		dialogs = opts.Out
	)
	if opts.JSON {
		jh := runner.NewJSONHandler(opts.In, opts.Out)
		handler, reader = jh, jh
		// JSON lines own Stdout.
		dialogs = os.Stderr
	} else {
		theme := cfg.Theme
		if !interactive {
			theme = config.ThemeNoTTY
		}
		render, err := tui.NewRenderer(theme, 0)
		if err != nil {
			return err
		}
		th := runner.NewTextHandler(opts.In, opts.Out,
			runner.WithTextHandlerRenderer(render),
			runner.WithTextHandlerMaxInput(cfg.Input.MaxSize),
		)
		if interactive {
			th.Formatter = styledOption
		}
		handler, reader = th, th
	}

	eng := NewTerminal(reader, dialogs, opts.Path)
	eng.Plain = !interactive

	host := storytree.New(
		storytree.WithLogger(logger),
		storytree.WithEngine(eng),
		storytree.WithLifecycleHooks(debugHooks(logger)),
	)
	defer host.Close()

	stories, err := withStatus(ctx, opts.Out, "Loading "+opts.Path, func(ctx context.Context) ([]*story.Story, error) {
		return host.EvaluateFile(ctx, opts.Path)
	})
	if err != nil {
		return describe(err)
	}
	st, err := pick(stories, opts.StoryID)
	if err != nil {
		return err
	}
	logger.Info("Story loaded", "story", st.ID, "nodes", len(st.Nodes))

	player, err := host.NewPlayer(st)
	if err != nil {
		return err
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
	}
	if opts.SessionID != "" {
		p, err := OpenStore(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer p.Close()
		if opts.Fresh {
			if err := p.Sessions.Delete(ctx, opts.SessionID); err != nil {
				logger.Debug("nothing to reset", "session_id", opts.SessionID, "err", err)
			}
		}
		runnerOpts = append(runnerOpts, runner.WithSessions(p.Sessions), runner.WithSessionID(opts.SessionID))
		if !opts.Quiet && !opts.JSON {
			printSystemMessage(opts.Out, "Session '%s' active.", opts.SessionID)
		}
	}

	final, err := runner.NewRunner(runnerOpts...).Run(ctx, player)
	if err != nil && !isInterrupted(err) {
		return describe(err)
	}
	if final != nil && !opts.Quiet && !opts.JSON {
		printSystemMessage(opts.Out, "Finished at '%s' node.", final.CurrentNodeID)
	}
	return handleExecutionError(err)
}

// pick returns the story with the given ID, or the first one.
func pick(stories []*story.Story, id string) (*story.Story, error) {
	if len(stories) == 0 {
		return nil, story.ErrNoStories
	}
	if id == "" {
		return stories[0], nil
	}
	for _, st := range stories {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrStoryNotFound, id)
}

// describe appends the diagnostics report of evaluation errors.
func describe(err error) error {
	var evalErr *story.EvaluationError
	if errors.As(err, &evalErr) {
		return fmt.Errorf("%w\n%s", err, evalErr.Report())
	}
	return err
}

func styledOption(o domain.OptionView) string {
	if !o.Available {
		return tui.Muted(fmt.Sprintf("%d. %s", o.Index, o.Text))
	}
	return fmt.Sprintf("%d. %s", o.Index, o.Text)
}

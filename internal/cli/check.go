package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/validator"
	"github.com/aretw0/storytree/pkg/adapters/memory"
	"github.com/aretw0/storytree/pkg/library"
	"github.com/aretw0/storytree/pkg/session"
	"github.com/aretw0/storytree/pkg/story"
)

// ErrCheckFailed is returned when at least one story has problems.
var ErrCheckFailed = errors.New("check failed")

// CheckOptions configures the check command.
type CheckOptions struct {
	Paths []string
	// Strict turns warnings into failures.
	Strict bool
	// Watch checks again whenever a story file changes, until ctx is done.
	Watch bool
	Out   io.Writer
}

// Check evaluates every story file of the paths and validates the stories.
func Check(ctx context.Context, opts CheckOptions, logger *slog.Logger) error {
	host := storytree.New(storytree.WithLogger(logger))
	defer host.Close()

	lib := library.New(host, session.NewManager(memory.NewStore()), library.WithLogger(logger))
	if err := lib.Load(ctx, opts.Paths...); err != nil {
		return err
	}
	err := report(lib, opts)
	if !opts.Watch {
		return err
	}

	printSystemMessage(opts.Out, "Waiting for changes...")
	werr := lib.Watch(ctx, func(loadErr error) {
		if loadErr != nil {
			fmt.Fprintf(opts.Out, "reload failed: %v\n", loadErr)
			return
		}
		fmt.Fprintln(opts.Out)
		_ = report(lib, opts)
		printSystemMessage(opts.Out, "Waiting for changes...")
	})
	if errors.Is(werr, context.Canceled) {
		return nil
	}
	return werr
}

// report prints the failures and validation reports of the library.
func report(lib *library.Library, opts CheckOptions) error {
	failed := 0
	for _, f := range lib.Failures() {
		failed++
		fmt.Fprintf(opts.Out, "✖ %s\n", f.Path)
		var evalErr *story.EvaluationError
		if errors.As(f.Err, &evalErr) {
			fmt.Fprint(opts.Out, indent(evalErr.Report()))
		} else {
			fmt.Fprintf(opts.Out, "  %v\n", f.Err)
		}
	}

	for _, sum := range lib.Stories() {
		st, err := lib.Story(sum.ID)
		if err != nil {
			return err
		}
		r := validator.Validate(st)
		mark := "✔"
		if r.Err(opts.Strict) != nil {
			mark = "✖"
			failed++
		} else if len(r.Issues) > 0 {
			mark = "⚠"
		}
		fmt.Fprintf(opts.Out, "%s %s (%s, %d nodes)\n", mark, sum.ID, sum.Source, sum.Nodes)
		for _, i := range r.Issues {
			fmt.Fprintf(opts.Out, "  %s\n", i)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d problem(s)", ErrCheckFailed, failed)
	}
	return nil
}

func indent(s string) string {
	out := make([]byte, 0, len(s)+16)
	start := true
	for i := 0; i < len(s); i++ {
		if start && s[i] != '\n' {
			out = append(out, ' ', ' ')
		}
		out = append(out, s[i])
		start = s[i] == '\n'
	}
	return string(out)
}

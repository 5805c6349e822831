package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/storytree/internal/presentation/tui"
	"github.com/aretw0/storytree/pkg/adapters/file"
	"github.com/aretw0/storytree/pkg/story"
)

// LineReader supplies the reader's answers, one line at a time.
// runner.TextHandler and runner.JSONHandler both qualify.
type LineReader interface {
	Input(ctx context.Context) (string, error)
}

// Terminal is the story.CommonEngine of the command line reader.
// Dialogs are printed to Out and answered through In.
type Terminal struct {
	In        LineReader
	Out       io.Writer
	Resources *file.Resources
	// Plain disables styling, for pipes and JSON mode.
	Plain bool

	mu         sync.Mutex
	background story.Resource
	font       story.Font
	closed     bool
}

var _ story.CommonEngine = (*Terminal)(nil)

// NewTerminal creates a terminal engine serving the resources of the
// story file at storyPath.
func NewTerminal(in LineReader, out io.Writer, storyPath string) *Terminal {
	return &Terminal{
		In:        in,
		Out:       out,
		Resources: file.ForStory(storyPath),
	}
}

func (t *Terminal) Warn(message string) {
	if t.Plain {
		fmt.Fprintf(t.Out, "[warn] %s\n", message)
		return
	}
	fmt.Fprintln(t.Out, tui.Warn(message))
}

func (t *Terminal) Error(message string) {
	if t.Plain {
		fmt.Fprintf(t.Out, "[error] %s\n", message)
		return
	}
	fmt.Fprintln(t.Out, tui.Error(message))
}

func (t *Terminal) Resource(name string) (story.Resource, error) {
	return t.Resources.Resource(name)
}

func (t *Terminal) LoadResources(ctx context.Context) error {
	return t.Resources.Load(ctx)
}

// AskInput repeats the question until the answer is not blank.
func (t *Terminal) AskInput(ctx context.Context, question string) (string, error) {
	for {
		fmt.Fprintln(t.Out, question)
		answer, err := t.In.Input(ctx)
		if err != nil {
			return "", err
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer, nil
		}
	}
}

// Choice lists the buttons and reads a number or a button text. Cancellable
// dialogs accept 0 or "cancel".
func (t *Terminal) Choice(ctx context.Context, req story.ChoiceRequest) (*story.ChoiceOption, error) {
	if len(req.Options) == 0 {
		return nil, errors.New("choice without options")
	}

	fmt.Fprintln(t.Out)
	if req.Title != "" {
		title := req.Title
		if icon := tui.Icon(req.Icon); icon != "" {
			title = icon + " " + title
		}
		if !t.Plain {
			title = tui.Title(title)
		}
		fmt.Fprintln(t.Out, title)
	}
	if req.Text != "" {
		fmt.Fprintln(t.Out, req.Text)
	}
	for i, o := range req.Options {
		label := o.Text
		if !t.Plain {
			label = tui.Button(o)
		}
		fmt.Fprintf(t.Out, "%d. %s\n", i+1, label)
	}
	if req.Cancellable {
		fmt.Fprintln(t.Out, "0. Cancel")
	}

	for {
		answer, err := t.In.Input(ctx)
		if err != nil {
			return nil, err
		}
		answer = strings.TrimSpace(answer)
		if req.Cancellable && (answer == "0" || strings.EqualFold(answer, "cancel")) {
			return nil, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(req.Options) {
			return req.Options[n-1], nil
		}
		for _, o := range req.Options {
			if strings.EqualFold(o.Text, answer) {
				return o, nil
			}
		}
		fmt.Fprintf(t.Out, "%q is not one of the options.\n", answer)
	}
}

// SetBackground only accepts resources of this terminal.
func (t *Terminal) SetBackground(res story.Resource) error {
	if res != nil && !t.Resources.Owns(res) {
		return &story.InvalidResourceError{Name: res.Name()}
	}
	t.mu.Lock()
	t.background = res
	t.mu.Unlock()

	if res != nil {
		fmt.Fprintln(t.Out, t.muted("[background: "+res.Name()+"]"))
	}
	return nil
}

func (t *Terminal) SetFont(font story.Font) {
	t.mu.Lock()
	t.font = font
	t.mu.Unlock()
	fmt.Fprintln(t.Out, t.muted("[font: "+font.Name+"]"))
}

func (t *Terminal) CloseStory() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Background returns the current background, nil when none is set.
func (t *Terminal) Background() story.Resource {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.background
}

// Font returns the last font requested by the story.
func (t *Terminal) Font() story.Font {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.font
}

// Closed reports whether the story asked to be closed.
func (t *Terminal) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close releases the resources index.
func (t *Terminal) Close() error {
	return t.Resources.Close()
}

func (t *Terminal) muted(s string) string {
	if t.Plain {
		return s
	}
	return tui.Muted(s)
}

package testutils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/storytree/pkg/story"
)

// ScriptedEngine is a CommonEngine whose reader answers are queued in advance.
type ScriptedEngine struct {
	mu sync.Mutex

	// Answers are returned by AskInput, in order.
	Answers []string
	// Picks are the option texts chosen by Choice, in order. An empty string cancels.
	Picks []string
	// Resources maps names to content.
	Resources map[string]string

	Warnings   []string
	Errors     []string
	Questions  []string
	Choices    []story.ChoiceRequest
	Background story.Resource
	Font       story.Font
	Loaded     bool
	Closed     bool
}

var _ story.CommonEngine = (*ScriptedEngine)(nil)

func (e *ScriptedEngine) Warn(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Warnings = append(e.Warnings, message)
}

func (e *ScriptedEngine) Error(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Errors = append(e.Errors, message)
}

type memResource struct {
	name    string
	content string
}

func (r memResource) Name() string { return r.name }

func (r memResource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(r.content))), nil
}

func (e *ScriptedEngine) Resource(name string) (story.Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	content, ok := e.Resources[name]
	if !ok {
		return nil, fmt.Errorf("resource %q not found", name)
	}
	return memResource{name: name, content: content}, nil
}

func (e *ScriptedEngine) LoadResources(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Loaded = true
	return nil
}

func (e *ScriptedEngine) AskInput(_ context.Context, question string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Questions = append(e.Questions, question)
	if len(e.Answers) == 0 {
		return "", errors.New("no answer queued")
	}
	a := e.Answers[0]
	e.Answers = e.Answers[1:]
	return a, nil
}

func (e *ScriptedEngine) Choice(_ context.Context, req story.ChoiceRequest) (*story.ChoiceOption, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Choices = append(e.Choices, req)
	if len(e.Picks) == 0 {
		return nil, errors.New("no pick queued")
	}
	pick := e.Picks[0]
	e.Picks = e.Picks[1:]
	if pick == "" {
		return nil, nil
	}
	for _, o := range req.Options {
		if o.Text == pick {
			return o, nil
		}
	}
	return nil, fmt.Errorf("no option %q", pick)
}

func (e *ScriptedEngine) SetBackground(res story.Resource) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if res != nil {
		if _, ok := res.(memResource); !ok {
			return &story.InvalidResourceError{Name: res.Name()}
		}
	}
	e.Background = res
	return nil
}

func (e *ScriptedEngine) SetFont(font story.Font) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Font = font
}

func (e *ScriptedEngine) CloseStory() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Closed = true
	return nil
}

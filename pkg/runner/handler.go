package runner

import (
	"context"

	"github.com/aretw0/storytree/pkg/domain"
)

// IOHandler defines the strategy for interacting with the reader.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the actions of a render. It returns true when the
	// actions offer a choice the reader has to answer.
	Output(ctx context.Context, actions []domain.ActionRequest) (bool, error)

	// Input reads the reader's answer. io.EOF ends the reading.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (invalid choice, end of story),
	// distinct from story content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms node content before it is written, e.g.
// Markdown to ANSI, without coupling this package to a terminal library.
type ContentRenderer func(string) (string, error)

// OptionFormatter formats one option line of a choice menu.
type OptionFormatter func(domain.OptionView) string

func choiceOf(actions []domain.ActionRequest) (domain.ChoiceRequest, bool) {
	for _, act := range actions {
		if act.Type == domain.ActionRequestChoice {
			if req, ok := act.Payload.(domain.ChoiceRequest); ok && len(req.Options) > 0 {
				return req, true
			}
		}
	}
	return domain.ChoiceRequest{}, false
}

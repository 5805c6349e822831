package story

import (
	"context"
	"io"
	"log/slog"
)

// BaseEngine is the minimal capability every host offers to a story.
type BaseEngine interface {
	// Warn shows a warning to the reader.
	Warn(message string)
	// Error shows an error to the reader.
	Error(message string)
}

// Resource is a file shipped next to a story (images, fonts, text).
type Resource interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// ResourceEngine serves the resources folder of a story.
type ResourceEngine interface {
	BaseEngine

	// Resource returns a loaded resource by its path relative to the resources folder.
	Resource(name string) (Resource, error)

	// LoadResources loads the resources folder.
	LoadResources(ctx context.Context) error
}

// CommonEngine is the full interactive capability set of a reader application.
type CommonEngine interface {
	ResourceEngine

	// AskInput asks the reader for a non-empty answer.
	AskInput(ctx context.Context, question string) (string, error)

	// Choice presents the options and returns the chosen one, or nil when a
	// cancellable choice was cancelled.
	Choice(ctx context.Context, req ChoiceRequest) (*ChoiceOption, error)

	// SetBackground shows a resource behind the node text. Nil clears it.
	SetBackground(res Resource) error

	SetFont(font Font)

	// CloseStory closes the story being read.
	CloseStory() error
}

// Capability names accepted by the require statement.
const (
	CapabilityBase     = "base"
	CapabilityResource = "resource"
	CapabilityCommon   = "common"
)

// Supports reports whether eng offers the named capability.
func Supports(eng BaseEngine, capability string) bool {
	switch capability {
	case CapabilityBase:
		return eng != nil
	case CapabilityResource:
		_, ok := eng.(ResourceEngine)
		return ok
	case CapabilityCommon:
		_, ok := eng.(CommonEngine)
		return ok
	}
	return false
}

// ChoiceOption is a button of a choice dialog.
type ChoiceOption struct {
	Text      string `json:"text"`
	Color     string `json:"color,omitempty"`
	WhiteText bool   `json:"white_text,omitempty"`
}

// ChoiceRequest describes a choice dialog.
type ChoiceRequest struct {
	Title       string          `json:"title,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Text        string          `json:"text"`
	Cancellable bool            `json:"cancellable,omitempty"`
	Options     []*ChoiceOption `json:"options"`
}

// Font is the typeface a reader application should use.
type Font struct {
	Name string `json:"name"`
}

var (
	// FontMuli is a clean, modern sans serif.
	FontMuli = Font{Name: "Muli"}
	// FontMerriweather is a serif font suited to storytelling.
	FontMerriweather = Font{Name: "Merriweather"}
)

// NopEngine only offers BaseEngine; messages go to a logger.
type NopEngine struct {
	Logger *slog.Logger
}

func (e NopEngine) Warn(message string) {
	if e.Logger != nil {
		e.Logger.Warn("story warning", "message", message)
	}
}

func (e NopEngine) Error(message string) {
	if e.Logger != nil {
		e.Logger.Error("story error", "message", message)
	}
}

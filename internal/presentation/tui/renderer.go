package tui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Themes accepted by NewRenderer.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeNoTTY = "notty"
)

// NewRenderer returns a function that renders node bodies as Markdown for
// the terminal. An empty theme means auto detection of the background.
func NewRenderer(theme string, width int) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithEmoji()}
	switch theme {
	case "", ThemeAuto:
		opts = append(opts, glamour.WithAutoStyle())
	case ThemeDark, ThemeLight, ThemeNoTTY:
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		return nil, fmt.Errorf("unknown theme %q", theme)
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render, nil
}

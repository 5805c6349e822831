package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/storytree/pkg/story"
)

var (
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	buttonStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Warn styles a warning line.
func Warn(msg string) string { return warnStyle.Render("⚠ " + msg) }

// Error styles an error line.
func Error(msg string) string { return errorStyle.Render("✖ " + msg) }

// Title styles a dialog title.
func Title(s string) string { return titleStyle.Render(s) }

// Muted styles secondary text such as unavailable options.
func Muted(s string) string { return mutedStyle.Render(s) }

// Button renders a choice option with its background color. White text is
// used when requested, black otherwise.
func Button(o *story.ChoiceOption) string {
	s := buttonStyle
	if o.Color != "" {
		s = s.Background(colorOf(o.Color))
		if o.WhiteText {
			s = s.Foreground(lipgloss.Color("#ffffff"))
		} else {
			s = s.Foreground(lipgloss.Color("#000000"))
		}
	}
	return s.Render(o.Text)
}

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"red":    "#d32f2f",
	"green":  "#388e3c",
	"blue":   "#1976d2",
	"yellow": "#fbc02d",
	"orange": "#f57c00",
	"purple": "#7b1fa2",
	"gray":   "#757575",
	"grey":   "#757575",
}

// colorOf accepts hex colors, ANSI codes and a few CSS color names.
func colorOf(c string) lipgloss.Color {
	if hex, ok := namedColors[strings.ToLower(c)]; ok {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(c)
}

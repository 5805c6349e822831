package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storytree/pkg/story"
)

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(ThemeNoTTY, 60)
	require.NoError(t, err)

	out, err := render("# Cave\n\nIt is **dark**.")
	require.NoError(t, err)
	assert.Contains(t, out, "Cave")
	assert.Contains(t, out, "dark")

	_, err = NewRenderer("sepia", 0)
	assert.Error(t, err)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), len(bannerLines)+2)
}

func TestIcon(t *testing.T) {
	assert.Equal(t, "⛔", Icon("gmi-do-not-disturb-on"))
	assert.Equal(t, "📖", Icon("MDI-Book-Open-Page-Variant"))
	assert.Equal(t, "•", Icon("mdi-unheard-of"))
	assert.Equal(t, "!", Icon("!"))
	assert.Equal(t, "", Icon(""))
}

func TestButton(t *testing.T) {
	out := Button(&story.ChoiceOption{Text: "Yes", Color: "red", WhiteText: true})
	assert.Contains(t, out, "Yes")
	assert.Equal(t, lipgloss.Color("#d32f2f"), colorOf("Red"))
	assert.Equal(t, lipgloss.Color("#123456"), colorOf("#123456"))
	assert.Contains(t, Warn("careful"), "careful")
	assert.Contains(t, Error("boom"), "boom")
}

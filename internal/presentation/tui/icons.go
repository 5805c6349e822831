package tui

import "strings"

// icons maps icon-pack names (Google Material "gmi-", Material Design
// "mdi-", Font Awesome "fa-") to terminal glyphs.
var icons = map[string]string{
	"gmi-home":                   "⌂",
	"gmi-info":                   "ℹ",
	"gmi-warning":                "⚠",
	"gmi-error":                  "✖",
	"gmi-help":                   "?",
	"gmi-check":                  "✔",
	"gmi-close":                  "✕",
	"gmi-favorite":               "♥",
	"gmi-star":                   "★",
	"gmi-bug-report":             "🐞",
	"gmi-do-not-disturb-on":      "⛔",
	"gmi-insert-drive-file":      "🗎",
	"gmi-lock":                   "🔒",
	"gmi-vpn-key":                "🔑",
	"mdi-book-open-page-variant": "📖",
	"mdi-alert":                  "⚠",
	"mdi-information":            "ℹ",
	"mdi-help-circle":            "?",
	"mdi-skull":                  "☠",
	"mdi-sword":                  "⚔",
	"mdi-heart":                  "♥",
	"mdi-weather-sunny":          "☀",
	"mdi-weather-night":          "☾",
	"mdi-theme-light-dark":       "◐",
	"mdi-key":                    "🔑",
	"mdi-door":                   "🚪",
	"fa-question":                "?",
	"fa-exclamation":             "!",
	"fa-star":                    "★",
}

// Icon resolves an icon-pack name to a glyph. Unknown names of a known pack
// fall back to a bullet; anything else is returned unchanged.
func Icon(name string) string {
	if name == "" {
		return ""
	}
	if g, ok := icons[strings.ToLower(name)]; ok {
		return g
	}
	for _, prefix := range []string{"gmi-", "mdi-", "fa-", "fas-", "far-"} {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			return "•"
		}
	}
	return name
}

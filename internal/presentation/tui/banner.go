package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _                  _              `, "#818cf8"},
	{` ___| |_ ___  _ __ _  _| |_ _ _ ___ ___ `, "#a78bfa"},
	{`(_-<  _/ _ \| '_|| || |  _| '_/ -_) -_)`, "#c084fc"},
	{`/__/\__\___/|_|   \_, |\__|_| \___\___|`, "#e879f9"},
	{`                  |__/                 `, "#f472b6"},
}

// PrintBanner writes the storytree banner, colored for the profile of w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}

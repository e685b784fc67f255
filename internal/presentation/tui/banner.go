package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{"  _ __ ___   ___| |_| |_ __ _ ", "#34d399"},
	{" | '_ ` _ \\ / _ \\ __| __/ _` |", "#2dd4bf"},
	{" | | | | | |  __/ |_| || (_| |", "#22d3ee"},
	{" |_| |_| |_|\\___|\\__|\\__\\__,_|", "#38bdf8"},
}

// PrintBanner writes the start-up banner with the backend and engine version.
// Colours follow profile; termenv.Ascii prints plain text.
func PrintBanner(w io.Writer, profile termenv.Profile, backend, version string) {
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, profile.String(l.text).Foreground(profile.Color(l.color)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, profile.String(fmt.Sprintf(" %s backend, engine %s. Type :help for help.", backend, version)).Faint())
	fmt.Fprintln(w)
}

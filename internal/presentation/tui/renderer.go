package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer for :help. It picks a light or
// dark style from the terminal background and wraps at width (80 if <= 0).
func NewRenderer(width int) func(string) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// NewPlainRenderer renders markdown without colours, for dumb terminals.
func NewPlainRenderer(width int) func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

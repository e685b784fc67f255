package tui

import (
	"github.com/aretw0/metta/pkg/runner"
	"github.com/charmbracelet/lipgloss"
)

var (
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#047857", Dark: "#6ee7b7"})
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#fca5a5"}).Bold(true)
	interruptStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fcd34d"}).Italic(true)
	noticeStyle    = lipgloss.NewStyle().Faint(true)
)

// Styles returns the outcome styles for a colour terminal.
func Styles() runner.Styles {
	return runner.Styles{
		Value:     render(valueStyle),
		Error:     render(errorStyle),
		Interrupt: render(interruptStyle),
		Notice:    render(noticeStyle),
	}
}

func render(style lipgloss.Style) func(string) string {
	return func(s string) string { return style.Render(s) }
}

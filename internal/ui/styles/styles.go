// Package styles holds the shared lipgloss styles for the loom demo UI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/loom/internal/config"
)

var (
	HighlightColor = lipgloss.Color("#7D56F4")
	SubtleColor    = lipgloss.Color("#6B7280")
	ErrorColor     = lipgloss.Color("#EF4444")
	SuccessColor   = lipgloss.Color("#10B981")
)

// Apply overrides the color tokens from theme config. Empty values
// keep the defaults.
func Apply(t config.ThemeConfig) {
	if t.Highlight != "" {
		HighlightColor = lipgloss.Color(t.Highlight)
	}
	if t.Subtle != "" {
		SubtleColor = lipgloss.Color(t.Subtle)
	}
	if t.Error != "" {
		ErrorColor = lipgloss.Color(t.Error)
	}
	if t.Success != "" {
		SuccessColor = lipgloss.Color(t.Success)
	}
}

// Title renders a pane header.
func Title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(HighlightColor)
}

// Pane renders an unfocused feed pane border.
func Pane() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SubtleColor).
		Padding(0, 1)
}

// PaneFocused renders the focused feed pane border.
func PaneFocused() lipgloss.Style {
	return Pane().BorderForeground(HighlightColor)
}

// StatusBar renders the bottom status line.
func StatusBar() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SubtleColor)
}

// Help renders the help footer.
func Help() lipgloss.Style {
	return lipgloss.NewStyle().Faint(true)
}

package ticker

import "github.com/charmbracelet/lipgloss"

// Styles controls how story rows are drawn.
type Styles struct {
	Story   lipgloss.Style
	Visited lipgloss.Style
}

// NewStyles builds the story and visited styles from two foreground colors.
func NewStyles(story, visited lipgloss.Color) Styles {
	return Styles{
		Story:   lipgloss.NewStyle().Foreground(story),
		Visited: lipgloss.NewStyle().Foreground(visited).Faint(true),
	}
}

// DefaultStyles matches the default configuration (cyan stories, magenta once
// clicked).
func DefaultStyles() Styles {
	return NewStyles(lipgloss.Color("6"), lipgloss.Color("5"))
}

package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorWarn      = lipgloss.Color("214") // Orange
)

// Header style for the top line.
var Header = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236"))

// HeaderTitle style for the program name.
var HeaderTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// HeaderPaused marks the paused state.
var HeaderPaused = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWarn)

// HeaderText style for counters.
var HeaderText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StatusBar style for the bottom line.
var StatusBar = lipgloss.NewStyle().
	Foreground(colorMuted)

// ErrorStyle for transient errors on the status line.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section titles inside the overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary)

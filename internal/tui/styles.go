// Package tui renders styled console output and interactive prompts for the
// palisade CLI.
package tui

import "github.com/charmbracelet/lipgloss"

// Palisade Color Palette
var (
	ColorTimber = lipgloss.Color("#D4A373") // Warm accent for titles
	ColorSlate  = lipgloss.Color("#596E79") // Muted blue/grey for borders
	ColorText   = lipgloss.Color("#E0E0E0") // Primary text
	ColorAlert  = lipgloss.Color("#FF6B6B") // Failures
	ColorGood   = lipgloss.Color("#4ECDC4") // Passes
	ColorWarn   = lipgloss.Color("#FFE66D") // Skipped or absent
	ColorMuted  = lipgloss.Color("#6c757d") // Secondary text
)

// Styles
var (
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorTimber).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorSlate).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorTimber).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)

	// Status Indicators
	StyleStatusGood = lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	StyleStatusBad  = lipgloss.NewStyle().Foreground(ColorAlert).Bold(true)
	StyleStatusWarn = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)

	StyleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSlate).
			Padding(0, 1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorSlate).
			Bold(true)
)

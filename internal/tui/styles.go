package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
const (
	ColorAccent = lipgloss.Color("212")
	ColorMuted  = lipgloss.Color("241")
	ColorBorder = lipgloss.Color("240")
	ColorError  = lipgloss.Color("196")
	ColorButton = lipgloss.Color("62")
	ColorText   = lipgloss.Color("252")
)

//nolint:gochecknoglobals // Shared styles are read-only after init.
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	ItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorButton).
			Padding(0, 1)

	// ButtonIdleStyle is used for the button while its form is not focused.
	ButtonIdleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedPaneStyle = PaneStyle.
				BorderForeground(ColorAccent)
)

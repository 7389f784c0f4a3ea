package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primary   = lipgloss.Color("#7C3AED")
	secondary = lipgloss.Color("#A78BFA")
	success   = lipgloss.Color("#10B981")
	warning   = lipgloss.Color("#F59E0B")
	danger    = lipgloss.Color("#EF4444")
	muted     = lipgloss.Color("#6B7280")
	text      = lipgloss.Color("#F9FAFB")
	textDim   = lipgloss.Color("#9CA3AF")
	bg        = lipgloss.Color("#1F2937")

	// Header styles
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(text).
			Background(primary).
			Padding(0, 2)

	// List styles
	SelectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(text).
				Background(primary).
				Padding(0, 1)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(text).
			Padding(0, 1)

	// Panel styles
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	// Status bar styles
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(textDim).
			Background(bg).
			Padding(0, 1)

	// Help styles
	HelpStyle = lipgloss.NewStyle().
			Foreground(muted)

	HelpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondary)

	// Error styles
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(danger)

	// Success styles
	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(success)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(muted)
)

// statusColor maps an appointment status onto the palette.
func statusColor(status string) lipgloss.Color {
	switch status {
	case "completed":
		return success
	case "canceled":
		return muted
	case "no-show":
		return danger
	default:
		return secondary
	}
}

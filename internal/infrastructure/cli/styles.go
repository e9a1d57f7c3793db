package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#7B68EE")
	colorSuccess = lipgloss.Color("#50C878")
	colorWarning = lipgloss.Color("#FFB347")
	colorError   = lipgloss.Color("#FF6961")
	colorMuted   = lipgloss.Color("#808080")
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleLabel   = lipgloss.NewStyle().Foreground(colorMuted).Width(8)
	styleValue   = lipgloss.NewStyle().Bold(true)
	styleOK      = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleErr     = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	styleLineNum = lipgloss.NewStyle().Foreground(colorMuted)
)

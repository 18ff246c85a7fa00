package ui

import "github.com/charmbracelet/lipgloss"

// Overlay palette.
const (
	ColorCharcoal  = "#1e1e1e" // Background
	ColorFog       = "#e0e0e0" // Primary text
	ColorAsh       = "#888888" // Dim text / missing values
	ColorSkyBlue   = "#4a9eff" // CPU accent
	ColorMintGreen = "#4aff9e" // GPU accent
	ColorViolet    = "#8b5cf6" // Download
	ColorAmber     = "#eab308" // Upload
	ColorCrimson   = "#ff4444" // Over-threshold temperature
)

var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorAsh)).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorFog)).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAsh))

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorFog))

	MissingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAsh))

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorCrimson)).
			Bold(true)

	DownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorViolet))

	UpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAmber))
)

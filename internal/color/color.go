package color

import "github.com/charmbracelet/lipgloss"

var (
	Blue   = lipgloss.Color("12") // Bright blue
	Cyan   = lipgloss.Color("14") // Bright cyan
	Yellow = lipgloss.Color("11") // Bright yellow
	Green  = lipgloss.Color("10") // Bright green

	DarkGreen = lipgloss.Color("2")   // Dark green
	LightGray = lipgloss.Color("252") // Light gray
	DarkGray  = lipgloss.Color("240") // Dark gray
)

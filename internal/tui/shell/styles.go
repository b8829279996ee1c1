package shell

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorMuted  = lipgloss.Color("242") // gray
	colorWarn   = lipgloss.Color("214") // orange
	colorError  = lipgloss.Color("196") // bright red
	colorServer = lipgloss.Color("76")  // green
	colorPrompt = lipgloss.Color("39")  // blue
)

// Styles for the shell transcript
var (
	infoStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	serverStyle = lipgloss.NewStyle().
			Foreground(colorServer)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorPrompt).
			Bold(true)
)

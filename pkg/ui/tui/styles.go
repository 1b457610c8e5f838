package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Telegram-ish palette
	telegramBlue = lipgloss.Color("#2AABEE")
	neonCyan     = lipgloss.Color("#00FFFF")
	neonGreen    = lipgloss.Color("#39FF14")
	neonYellow   = lipgloss.Color("#FFFF00")
	neonOrange   = lipgloss.Color("#FF6700")
	dimWhite     = lipgloss.Color("#B0B0B0")

	// Question line
	titleStyle = lipgloss.NewStyle().
			Foreground(telegramBlue).
			Bold(true)

	// Marker in front of a question
	promptMarkStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true)

	// Highlighted choice
	cursorStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	// Ticked checkbox
	checkedStyle = lipgloss.NewStyle().
			Foreground(neonGreen)

	// Answer echoed after a prompt completes
	answerStyle = lipgloss.NewStyle().
			Foreground(neonYellow)

	// Validation message
	errorStyle = lipgloss.NewStyle().
			Foreground(neonOrange).
			Bold(true)

	// Key hints
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingLeft(2)

	choiceStyle = lipgloss.NewStyle().
			Foreground(dimWhite)
)

// GlowText renders text in bold with the given color
func GlowText(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(text)
}

package presentation

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#696969"}
	headerColor  = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#A48CF7"}

	addStyle    = lipgloss.NewStyle().Foreground(successColor)
	delStyle    = lipgloss.NewStyle().Foreground(errorColor)
	ctxStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	headerStyle = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)

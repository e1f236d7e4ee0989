// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#CCCCCC"} // Card titles
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#57606A", Dark: "#BBBBBB"} // Counts, ids
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#696969"} // Hints, empty columns

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#696969"} // Idle columns

	// Drop feedback
	DropAcceptColor   = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#73F59F"} // Hovered column that will accept
	DropRejectColor   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF8787"} // Hovered column that is full or disabled
	DropDisabledColor = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#4A4A4A"}

	// Status colors
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF8787"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#FFFFFF"}

	// Selection indicator style (used for ">" prefix on the selected card)
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	CardStyle     = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	DraggingStyle = lipgloss.NewStyle().Foreground(TextMutedColor).Italic(true)
	MutedStyle    = lipgloss.NewStyle().Foreground(TextMutedColor)

	StatusBarStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor).Padding(0, 1)
	SuccessStyle   = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	WarningStyle   = lipgloss.NewStyle().Foreground(StatusWarningColor)
	ErrorStyle     = lipgloss.NewStyle().Foreground(StatusErrorColor)
)

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderWithTitleBorder renders content with a title embedded in the top border:
//
//	╭─ Title ─────╮
//
// borderColor colors the frame, titleColor the title text.
func RenderWithTitleBorder(content, title string, width, height int, borderColor, titleColor lipgloss.TerminalColor) string {
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(titleColor).Bold(true)

	innerWidth := max(width-2, 1)
	contentHeight := max(height-2, 1)

	top := buildTopBorder(title, innerWidth, borderStyle, titleStyle)
	bottom := borderStyle.Render(borderBottomLeft + strings.Repeat(borderHorizontal, innerWidth) + borderBottomRight)

	// Let lipgloss clamp the content, then pad every line so the right edge lines up.
	constrained := lipgloss.NewStyle().Width(innerWidth).Height(contentHeight).Render(content)
	lines := strings.Split(constrained, "\n")

	side := borderStyle.Render(borderVertical)
	var sb strings.Builder
	sb.WriteString(top)
	for i := range contentHeight {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if w := lipgloss.Width(line); w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		}
		sb.WriteString("\n")
		sb.WriteString(side + line + side)
	}
	sb.WriteString("\n")
	sb.WriteString(bottom)
	return sb.String()
}

// buildTopBorder creates the top border with embedded title.
func buildTopBorder(title string, innerWidth int, borderStyle, titleStyle lipgloss.Style) string {
	// "─ " before and " ─" after the title at minimum.
	const chrome = 4
	if title == "" || innerWidth < chrome+1 {
		return borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	}

	display := TruncateString(title, innerWidth-chrome)
	rest := max(innerWidth-3-runewidth.StringWidth(display), 0)

	return borderStyle.Render(borderTopLeft+borderHorizontal+" ") +
		titleStyle.Render(display) +
		borderStyle.Render(" "+strings.Repeat(borderHorizontal, rest)+borderTopRight)
}

// TruncateString truncates s to maxWidth cells, ending in "…" when cut.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

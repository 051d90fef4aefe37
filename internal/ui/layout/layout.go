// Package layout draws the chrome around every screen: the header bar, the
// key-hint footer and the notice line.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/iamsmart/masterclass/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24

	// Below this width the dashboard drops its badge card.
	CompactWidthThreshold = 100
)

// KeyHint is one key binding listed in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func IsCompactWidth(width int) bool { return width < CompactWidthThreshold }

func IsTooSmall(width, height int) bool { return width < MinWidth || height < MinHeight }

// RenderMinSizeMessage asks the learner to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	body := fmt.Sprintf("The course needs a %d x %d terminal.\nThis one is %d x %d.\n\nPlease resize the window.",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Body.Render(body))
}

// HeaderStats is the learner summary shown on the right of the header.
type HeaderStats struct {
	Points          int
	ProgressPercent int
}

var (
	barStyle  = lipgloss.NewStyle().Background(theme.BgCard).Padding(0, 1)
	ruleStyle = lipgloss.NewStyle().Foreground(theme.Border)
	keyStyle  = lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
)

func rule(width int) string {
	return ruleStyle.Render(strings.Repeat("─", max(width, 0)))
}

// RenderHeader draws the brand, the screen title and the learner's points
// and progress on one bar with a rule underneath.
func RenderHeader(title string, stats HeaderStats, width int) string {
	brand := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("◆ Masterclass")
	center := theme.Body.Render(title)
	right := theme.Points.Render(fmt.Sprintf("★ %d pts", stats.Points)) + "  " +
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("%d%% done", stats.ProgressPercent))

	inner := max(width-2, 0)
	free := inner - lipgloss.Width(brand) - lipgloss.Width(center) - lipgloss.Width(right)
	leftGap := max(free/2, 1)
	rightGap := max(free-leftGap, 1)

	bar := brand + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
	return barStyle.Width(width).Render(bar) + "\n" + rule(width)
}

// RenderFooter lists the key hints under a rule.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = keyStyle.Render(h.Key) + " " + theme.Subtitle.Render(h.Description)
	}
	sep := theme.Subtitle.Render("  ·  ")
	return rule(width) + "\n" + barStyle.Width(width).Render(strings.Join(parts, sep))
}

// RenderNotice renders a one-line status message, or "" when text is empty.
func RenderNotice(text string, isError bool, width int) string {
	if text == "" {
		return ""
	}
	style := theme.Correct
	if isError {
		style = theme.Incorrect
	}
	return style.Width(width).Align(lipgloss.Center).Render(text)
}

// RenderFrame stacks header, content and footer, sizing the content to
// fill the remaining height exactly.
func RenderFrame(header, content, footer string, width, height int) string {
	h := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(h).MaxHeight(h).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// Wrap soft-wraps text to width columns.
func Wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(max(width, 10)).Render(text)
}

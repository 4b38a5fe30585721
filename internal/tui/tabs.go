package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderTabs draws one tab per feed source, numbered from 1.
func renderTabs(names []string, active int, width int) string {
	sep := tabSeparatorStyle.Render(" · ")

	var row string
	for i, name := range names {
		style := tabInactiveStyle
		if i == active {
			style = tabActiveStyle
		}
		part := style.Render(fmt.Sprintf("%d %s", i+1, name))

		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		// Stop once the row would overflow, but always show the first tab.
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}

package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/petitions/internal/presenter"
)

func renderStatusBar(state presenter.State, shown, total int, query string, width int, filtering bool) string {
	var left string
	switch state {
	case presenter.StateLoading:
		left = " loading..."
	case presenter.StateError:
		left = " load failed"
	case presenter.StateLoaded:
		left = fmt.Sprintf(" %d petitions", total)
		if query != "" {
			left = fmt.Sprintf(" %d of %d petitions · %q", shown, total, query)
		}
	default:
		left = " "
	}

	right := " / filter  r reload  c credits  ? help  q quit "
	if filtering {
		right = " esc cancel  enter filter "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

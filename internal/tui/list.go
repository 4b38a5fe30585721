package tui

import (
	"strings"

	"github.com/matheuskafuri/petitions/internal/petition"
)

func renderListItem(r petition.Row, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(r.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(r.Title, width-4))
	}

	body := "  " + itemBodyStyle.Render(truncateStr(oneLine(r.Body), width-4))

	return title + "\n" + body
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// oneLine collapses all whitespace runs, newlines included, to one space.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func renderList(rows []petition.Row, cursor int, height int, width int) string {
	if len(rows) == 0 {
		return lipglossCenter("No petitions found", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(rows) {
		end = len(rows)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(rows[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}

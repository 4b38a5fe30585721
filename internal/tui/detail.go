package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/matheuskafuri/petitions/internal/petition"
)

func signatures(n int) string {
	if n == 1 {
		return "1 signature"
	}
	return humanize.Comma(int64(n)) + " signatures"
}

func renderDetail(p *petition.Petition, width, height, scroll int) string {
	if p == nil {
		return lipglossCenter("Press enter to open a petition", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := detailTitleStyle.Width(contentWidth).Render(p.Title)
	count := detailSignaturesStyle.Render(signatures(p.SignatureCount))

	body := p.Body
	if strings.TrimSpace(body) == "" {
		body = "(No description available)"
	}
	bodyBlock := detailBodyStyle.Width(contentWidth).Render(wrapText(body, contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, title, count, "", bodyBlock)
	return clip(content, height, scroll)
}

func renderError(title, message string, width, height int) string {
	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		errorTitleStyle.Render(title),
		"",
		errorBodyStyle.Width(contentWidth).Render(wrapText(message, contentWidth)),
		"",
		helpDimStyle.Render("press r to try again"),
	)
	return clip(content, height, 0)
}

// clip applies a scroll offset and pads or cuts content to exactly height
// lines.
func clip(content string, height, scroll int) string {
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// wrapText keeps paragraph breaks and wraps each paragraph at width.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	paragraphs := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
				out = append(out, line)
				line = w
			} else {
				line += " " + w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

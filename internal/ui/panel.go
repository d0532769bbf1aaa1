package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a bar for percent in [0, 100].
func ProgressBar(percent, width int) string {
	if width < 5 {
		width = 5
	}
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	t := Current()
	bar := strings.Repeat(t.BarFull, filled) + strings.Repeat(t.BarEmpty, width-filled)
	return fmt.Sprintf("%s %3d%%", bar, percent)
}

// Panel frames lines with the theme border, with an optional title line.
func Panel(title string, lines []string) string {
	t := Current()
	body := lines
	if title != "" {
		body = append([]string{t.Title.Render(title)}, lines...)
	}
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderFg).
		Padding(0, 1).
		Render(strings.Join(body, "\n"))
}

// Truncate shortens s to width cells, adding an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

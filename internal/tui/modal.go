package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	modalMinWidth = 40
	modalMaxWidth = 84
)

func modalWidth(termW int) int {
	w := termW - 8
	return min(max(w, modalMinWidth), modalMaxWidth)
}

func modalBodyWidth(width int) int {
	// Border (2) plus horizontal padding (2x2).
	return max(modalWidth(width)-6, 10)
}

func renderModalBox(width int, title string, content string) string {
	bodyW := modalBodyWidth(width)
	header := lipgloss.NewStyle().
		Bold(true).
		Width(bodyW).
		Foreground(colorSurfaceFg).
		Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorFocusBorder).
		Padding(0, 2).
		Width(bodyW + 4)
	return box.Render(strings.Join([]string{header, "", content}, "\n"))
}

// overlayCenter places a modal in the middle of the screen.
func overlayCenter(w, h int, modal string) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}

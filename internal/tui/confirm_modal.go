package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmFocus int

const (
	confirmFocusConfirm confirmFocus = iota
	confirmFocusCancel
)

func (f confirmFocus) toggle() confirmFocus {
	if f == confirmFocusConfirm {
		return confirmFocusCancel
	}
	return confirmFocusConfirm
}

func renderConfirmModal(width int, title, body, confirmLabel, cancelLabel string, focus confirmFocus) string {
	// No nested borders: some terminals leave background artifacts inside a
	// bordered modal.
	btn := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	active := btn.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm := btn.Render(confirmLabel)
	cancel := btn.Render(cancelLabel)
	if focus == confirmFocusConfirm {
		confirm = active.Render(confirmLabel)
	} else {
		cancel = active.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Width(bodyW).Render("tab: focus   enter: select   y/n   esc: cancel")
	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(body),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, title, content)
}

// renderNoticeModal shows a blocking message that only needs acknowledging.
func renderNoticeModal(width int, title, body string) string {
	bodyW := modalBodyWidth(width)
	content := strings.Join([]string{
		styleError().Width(bodyW).Render(body),
		"",
		styleMuted().Width(bodyW).Render("enter/esc: dismiss"),
	}, "\n")
	return renderModalBox(width, title, content)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"plansheet-cli/internal/sections"
)

const descriptionMaxLines = 3

func (m appModel) View() string {
	if m.width == 0 {
		return "Loading…"
	}
	if m.modal != modalNone {
		return overlayCenter(m.width, m.height, m.modalView())
	}

	header := m.headerView()
	footer := m.footerView()
	bodyH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer)-1, 3)

	left := m.list.View()
	if m.pane == paneSections {
		left = lipgloss.NewStyle().BorderRight(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorFocusBorder).Render(left)
	} else {
		left = lipgloss.NewStyle().BorderRight(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorBorder).Render(left)
	}
	left = normalizePane(left, sidebarWidth+1, bodyH)

	rightW := max(m.width-sidebarWidth-3, 20)
	right := normalizePane(lipgloss.NewStyle().PaddingLeft(1).Render(m.sectionView(rightW)), rightW+2, bodyH)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m appModel) headerView() string {
	parts := []string{
		lipgloss.NewStyle().Bold(true).Render("plansheet"),
		styleMuted().Render(m.host.ServerURL()),
		styleMuted().Render("project " + m.host.ProjectID()),
	}
	if !m.host.CanEdit() {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorWarn).Render("read-only"))
	}
	return strings.Join(parts, "  ")
}

func (m appModel) footerView() string {
	if m.minibuffer != "" {
		return lipgloss.NewStyle().Foreground(colorWarn).Render(m.minibuffer)
	}
	return m.help.View(m.keys)
}

func (m appModel) sectionView(width int) string {
	sec, ok := m.ctrl.Section()
	if !ok {
		return styleMuted().Render("Select a section.")
	}
	lines := []string{styleHeading().Render(sec.Title)}
	if d := renderDescription(sec.Description, width); d != "" {
		dl := strings.Split(d, "\n")
		if len(dl) > descriptionMaxLines {
			dl = append(dl[:descriptionMaxLines], styleMuted().Render("…"))
		}
		lines = append(lines, dl...)
	}
	lines = append(lines, "")

	switch m.ctrl.State() {
	case sections.StateLoading, sections.StateIdle:
		lines = append(lines, styleMuted().Render("Loading…"))
		return strings.Join(lines, "\n")
	case sections.StateError:
		lines = append(lines, styleError().Render(sections.MsgLoadFailed))
		if err := m.ctrl.Err(); err != nil {
			lines = append(lines, styleMuted().Width(width).Render(err.Error()))
		}
		lines = append(lines, "", styleMuted().Render("r: retry"))
		return strings.Join(lines, "\n")
	}

	t := m.ctrl.Table()
	v := t.View()
	if m.searching || t.Query() != "" {
		lines = append(lines, renderInputLine(min(width, 48), m.search.View()))
	}
	if v.ShowTable {
		lines = append(lines, renderSectionTable(v, width, m.cursor, m.pane == paneTable))
	}
	if m.banner.visible {
		lines = append(lines, styleMuted().Italic(true).Render(noRowsMessage))
	}
	lines = append(lines, renderStatusLine(v, t.Query()))
	if pager := renderPager(v.Pager); pager != "" {
		lines = append(lines, pager)
	}
	if m.host.CanEdit() {
		hint := fmt.Sprintf("a: %s", m.ctrl.AddLabel())
		if row, ok := m.selectedRow(); ok {
			hint += fmt.Sprintf("   e/enter: %s", strings.ToLower(row.ActionLabel()))
			if !row.Template() {
				hint += "   d: delete"
			}
		}
		if m.ctrl.State() == sections.StateMutating {
			hint = "Saving…"
		}
		lines = append(lines, styleMuted().Render(hint))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) modalView() string {
	switch m.modal {
	case modalForm:
		return m.form.view(m.width)
	case modalConfirmDelete:
		return renderConfirmModal(m.width, "Delete row", sections.MsgConfirmDelete, "Delete", "Cancel", m.confirm)
	case modalNotice:
		return renderNoticeModal(m.width, "Error", m.ctrl.Notice())
	}
	return ""
}

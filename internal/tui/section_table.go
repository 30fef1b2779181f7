package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	xansi "github.com/charmbracelet/x/ansi"

	"plansheet-cli/internal/sections"
	"plansheet-cli/internal/table"
)

const (
	minColumnWidth = 6
	emptyCell      = "—"
	noRowsMessage  = "No matching records."
)

// emptyBanner is the empty-state target handed to the table widget; the
// widget toggles it whenever a filter leaves no rows.
type emptyBanner struct {
	visible bool
}

func (b *emptyBanner) SetVisible(v bool) { b.visible = v }

// renderSectionTable draws one page of the widget. cursor indexes v.Rows and
// is highlighted only when focused.
func renderSectionTable(v table.View[sections.Row], width, cursor int, focused bool) string {
	if len(v.Columns) == 0 {
		return styleMuted().Render("This section has no fields.")
	}
	colW := columnWidth(width, len(v.Columns))

	headers := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = xansi.Truncate(oneLine(c.Label), colW-2, "…") + sortGlyph(v.Dirs[i])
	}
	rows := make([][]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		cells := r.Cells()
		out := make([]string, len(v.Columns))
		for i := range v.Columns {
			s := ""
			if i < len(cells) {
				s = oneLine(cells[i])
			}
			if s == "" {
				s = emptyCell
			}
			out[i] = xansi.Truncate(s, colW, "…")
		}
		rows = append(rows, out)
	}

	header := styleHeading().Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	template := styleMuted().Italic(true).Padding(0, 1)
	selected := cell.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return header
			case focused && row == cursor:
				return selected
			case row >= 0 && row < len(v.Rows) && v.Rows[row].Template():
				return template
			default:
				return cell
			}
		})
	return t.Render()
}

func columnWidth(width, n int) int {
	if n <= 0 {
		return width
	}
	// Every column costs one border and two padding cells.
	avail := width - 1 - 3*n
	return max(avail/n, minColumnWidth)
}

func sortGlyph(d table.Direction) string {
	switch d {
	case table.DirAsc:
		return " ▲"
	case table.DirDesc:
		return " ▼"
	default:
		return ""
	}
}

// renderPager draws the pagination controls, or "" when they are hidden.
func renderPager(p table.Pager) string {
	if !p.Visible {
		return ""
	}
	muted := styleMuted()
	active := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	button := func(b table.Button) string {
		label := b.Label
		switch {
		case b.Disabled:
			return muted.Render(label)
		case b.Active:
			return active.Render(" " + label + " ")
		default:
			return label
		}
	}
	parts := []string{button(p.Prev)}
	for _, b := range p.Pages {
		parts = append(parts, button(b))
	}
	parts = append(parts, button(p.Next))
	return strings.Join(parts, "  ")
}

// renderStatusLine summarizes the filter and paging state.
func renderStatusLine(v table.View[sections.Row], query string) string {
	s := fmt.Sprintf("%d rows", v.Total)
	if v.Total == 1 {
		s = "1 row"
	}
	if query != "" {
		s += fmt.Sprintf(" matching %q", query)
	}
	if v.PageCount > 1 {
		s += fmt.Sprintf(" · page %d/%d", v.Page, v.PageCount)
	}
	return styleMuted().Render(s)
}

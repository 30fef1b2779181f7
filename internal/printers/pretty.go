// Package printers renders sections as plain terminal tables.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"plansheet-cli/internal/form"
	"plansheet-cli/internal/host"
	"plansheet-cli/internal/sections"
	"plansheet-cli/internal/table"
)

const maxCellWidth = 48

type PrettyPrint struct {
	Out io.Writer
	// ShowID prefixes every row with its record id.
	ShowID bool
}

func New(out io.Writer) *PrettyPrint {
	if out == nil {
		out = color.Output
	}
	return &PrettyPrint{Out: out}
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.Out, title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.Out, title)
	_, _ = c.Fprintf(pp.Out, " - %d", count)
	switch count {
	case 1:
		_, _ = c.Fprintln(pp.Out, " row")
	default:
		_, _ = c.Fprintln(pp.Out, " rows")
	}
}

// Sections lists the host's section triggers.
func (pp *PrettyPrint) Sections(secs []host.Section) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = maxCellWidth
	tbl.AddRow(bold("Key"), bold("Title"), bold("Kind"))
	for _, s := range secs {
		kind := "table"
		if s.Singleton {
			kind = "singleton"
		}
		tbl.AddRow(s.Key, s.Title, faint(kind))
	}
	_, _ = fmt.Fprintln(pp.Out, tbl)
}

// Section prints one page of a loaded section.
func (pp *PrettyPrint) Section(title string, v table.View[sections.Row]) {
	pp.TitleWithCount(title, v.Total)
	if !v.ShowTable || v.Empty {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.Out, " No matching records.\n\n")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = maxCellWidth
	tbl.Wrap = true

	header := make([]any, 0, len(v.Columns)+1)
	if pp.ShowID {
		header = append(header, bold("ID"))
	}
	for i, c := range v.Columns {
		header = append(header, bold(c.Label+sortMark(v.Dirs[i])))
	}
	tbl.AddRow(header...)

	for _, r := range v.Rows {
		cells := make([]any, 0, len(header))
		if pp.ShowID {
			id := r.ID
			if r.Template() {
				id = "-"
			}
			cells = append(cells, faint(id))
		}
		for i := range v.Columns {
			cells = append(cells, display(r.Cells(), i))
		}
		tbl.AddRow(cells...)
	}
	_, _ = fmt.Fprintln(pp.Out, tbl)

	if v.Pager.Visible {
		_, _ = color.New(color.Faint).Fprintf(pp.Out, "Page %d of %d\n", v.Page, v.PageCount)
	}
	_, _ = fmt.Fprintln(pp.Out)
}

// FormErrors prints the messages of a rejected save.
func (pp *PrettyPrint) FormErrors(f *form.Form) {
	red := color.New(color.FgRed)
	for _, msg := range f.Errors {
		_, _ = red.Fprintln(pp.Out, msg)
	}
	for _, fld := range f.Fields {
		for _, msg := range fld.Errors {
			_, _ = red.Fprintf(pp.Out, "%s: %s\n", fld.Label, msg)
		}
	}
}

func (pp *PrettyPrint) Notice(msg string) {
	_, _ = color.New(color.FgYellow).Fprintln(pp.Out, msg)
}

func display(cells []string, i int) string {
	if i >= len(cells) {
		return "—"
	}
	s := strings.Join(strings.Fields(cells[i]), " ")
	if s == "" {
		return "—"
	}
	return s
}

func sortMark(d table.Direction) string {
	switch d {
	case table.DirAsc:
		return " ▲"
	case table.DirDesc:
		return " ▼"
	default:
		return ""
	}
}

func bold(s string) string  { return color.New(color.Bold).Sprint(s) }
func faint(s string) string { return color.New(color.Faint).Sprint(s) }

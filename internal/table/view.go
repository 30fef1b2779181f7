package table

import "strconv"

// Button is one pagination control.
type Button struct {
	Label    string
	Page     int
	Disabled bool
	Active   bool
}

// Pager describes the pagination controls. It is hidden when paging is off
// or everything fits on one page.
type Pager struct {
	Visible bool
	Prev    Button
	Pages   []Button
	Next    Button
}

// View is everything a renderer needs to draw the table once.
type View[R Row] struct {
	Columns   []Column
	Dirs      []Direction
	Rows      []R
	Total     int
	Page      int
	PageCount int
	// ShowTable is false only when the filter left no rows and an
	// empty-state target takes the table's place.
	ShowTable bool
	Empty     bool
	Pager     Pager
}

func (t *Table[R]) View() View[R] {
	empty := len(t.filtered) == 0
	v := View[R]{
		Columns:   t.Columns(),
		Dirs:      append([]Direction(nil), t.dirs...),
		Rows:      t.Visible(),
		Total:     len(t.filtered),
		Page:      t.page,
		PageCount: t.PageCount(),
		ShowTable: !(empty && t.opts.EmptyState != nil),
		Empty:     empty,
	}
	v.Pager = t.pager()
	return v
}

func (t *Table[R]) pager() Pager {
	total := t.PageCount()
	if !t.PagingActive() || total <= 1 {
		return Pager{}
	}
	p := Pager{
		Visible: true,
		Prev:    Button{Label: "Prev", Page: max(1, t.page-1), Disabled: t.page == 1},
		Next:    Button{Label: "Next", Page: min(total, t.page+1), Disabled: t.page == total},
	}
	for n := 1; n <= total; n++ {
		p.Pages = append(p.Pages, Button{Label: strconv.Itoa(n), Page: n, Active: n == t.page})
	}
	return p
}

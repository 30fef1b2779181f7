// Package table implements the client-side presentation transforms of a
// tabular section: search, stable column sort, page windowing and
// empty-state detection over an ordered set of opaque row handles.
//
// The package knows nothing about how rows are drawn or where they come
// from; renderers consume View.
package table

import (
	"slices"
	"strings"
)

// Row is an opaque handle to one rendered record. Cells returns the visible
// text of each column in header order.
type Row interface {
	Cells() []string
}

type Direction int

const (
	DirNone Direction = iota
	DirAsc
	DirDesc
)

func (d Direction) String() string {
	switch d {
	case DirAsc:
		return "asc"
	case DirDesc:
		return "desc"
	default:
		return ""
	}
}

// Column is one header cell. Columns are sortable unless flagged otherwise.
type Column struct {
	Label    string
	Sortable bool
}

// Table holds the widget state for one rendered table. It is not safe for
// concurrent use; callers drive it from a single UI loop.
type Table[R Row] struct {
	opts    Options
	columns []Column
	dirs    []Direction
	sortCol int

	all      []R
	filtered []R
	query    string
	page     int

	cmp *comparer
}

// New captures rows as the full row set and performs the initial render.
func New[R Row](columns []Column, rows []R, opts Options) *Table[R] {
	opts = opts.normalized()
	cols := slices.Clone(columns)
	if !opts.Sort {
		for i := range cols {
			cols[i].Sortable = false
		}
	}
	t := &Table[R]{
		opts:     opts,
		columns:  cols,
		dirs:     make([]Direction, len(cols)),
		sortCol:  -1,
		all:      slices.Clone(rows),
		filtered: slices.Clone(rows),
		page:     1,
		cmp:      newComparer(),
	}
	t.render()
	return t
}

func (t *Table[R]) Options() Options  { return t.opts }
func (t *Table[R]) Columns() []Column { return slices.Clone(t.columns) }
func (t *Table[R]) All() []R          { return slices.Clone(t.all) }
func (t *Table[R]) Filtered() []R     { return slices.Clone(t.filtered) }
func (t *Table[R]) Query() string     { return t.query }
func (t *Table[R]) Page() int         { return t.page }
func (t *Table[R]) Empty() bool       { return len(t.filtered) == 0 }

// Search keeps the rows whose concatenated cell text contains query,
// case-insensitively. An empty query restores every row in original order.
// It is a no-op when search is disabled.
func (t *Table[R]) Search(query string) {
	if !t.opts.Search {
		return
	}
	q := strings.ToLower(strings.TrimSpace(query))
	t.query = q
	if q == "" {
		t.filtered = slices.Clone(t.all)
	} else {
		out := make([]R, 0, len(t.all))
		for _, r := range t.all {
			if strings.Contains(strings.ToLower(rowText(r)), q) {
				out = append(out, r)
			}
		}
		t.filtered = out
	}
	t.page = 1
	t.render()
}

// SortBy toggles the direction of column col (asc first, then desc, then
// asc again) and resets every other column to neutral. Rows with equal keys
// keep their relative order. It reports false when the column cannot be
// sorted.
func (t *Table[R]) SortBy(col int) bool {
	if !t.opts.Sort || col < 0 || col >= len(t.columns) || !t.columns[col].Sortable {
		return false
	}
	next := DirAsc
	if t.dirs[col] == DirAsc {
		next = DirDesc
	}
	for i := range t.dirs {
		t.dirs[i] = DirNone
	}
	t.dirs[col] = next
	t.sortCol = col

	asc := next == DirAsc
	slices.SortStableFunc(t.filtered, func(a, b R) int {
		c := t.cmp.compare(cellText(a, col), cellText(b, col))
		if asc {
			return c
		}
		return -c
	})
	t.page = 1
	t.render()
	return true
}

// SortState returns the active sort column and its direction.
func (t *Table[R]) SortState() (int, Direction, bool) {
	if t.sortCol < 0 {
		return -1, DirNone, false
	}
	return t.sortCol, t.dirs[t.sortCol], true
}

// Direction returns the displayed direction of column col.
func (t *Table[R]) Direction(col int) Direction {
	if col < 0 || col >= len(t.dirs) {
		return DirNone
	}
	return t.dirs[col]
}

// SetPage moves to page n, clamped into the valid range.
func (t *Table[R]) SetPage(n int) {
	t.page = n
	t.render()
}

func (t *Table[R]) NextPage() { t.SetPage(t.page + 1) }
func (t *Table[R]) PrevPage() { t.SetPage(t.page - 1) }

// PagingActive reports whether rows are windowed into pages.
func (t *Table[R]) PagingActive() bool {
	return t.opts.Paging && len(t.filtered) > t.opts.PageSize
}

func (t *Table[R]) PageCount() int {
	if !t.PagingActive() {
		return 1
	}
	return (len(t.filtered) + t.opts.PageSize - 1) / t.opts.PageSize
}

// Visible returns the rows of the current page window.
func (t *Table[R]) Visible() []R {
	if !t.PagingActive() {
		return slices.Clone(t.filtered)
	}
	start := (t.page - 1) * t.opts.PageSize
	end := min(start+t.opts.PageSize, len(t.filtered))
	return slices.Clone(t.filtered[start:end])
}

// render clamps the page and syncs the empty-state target.
func (t *Table[R]) render() {
	if n := t.PageCount(); t.page > n {
		t.page = n
	}
	if t.page < 1 {
		t.page = 1
	}
	if t.opts.EmptyState != nil {
		t.opts.EmptyState.SetVisible(len(t.filtered) == 0)
	}
}

func rowText(r Row) string {
	return strings.Join(r.Cells(), "")
}

func cellText(r Row, col int) string {
	cells := r.Cells()
	if col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

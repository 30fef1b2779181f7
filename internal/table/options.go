package table

import (
	"strconv"
	"strings"
)

const (
	DefaultPageSize          = 10
	DefaultSearchPlaceholder = "Search…"
)

// EmptyTarget is an external display surface shown in place of the table
// when no rows pass the current filter.
type EmptyTarget interface {
	SetVisible(visible bool)
}

type Options struct {
	PageSize          int
	Paging            bool
	Search            bool
	Sort              bool
	SearchPlaceholder string
	EmptyState        EmptyTarget
}

func DefaultOptions() Options {
	return Options{
		PageSize:          DefaultPageSize,
		Paging:            true,
		Search:            true,
		Sort:              true,
		SearchPlaceholder: DefaultSearchPlaceholder,
	}
}

func (o Options) normalized() Options {
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.SearchPlaceholder == "" {
		o.SearchPlaceholder = DefaultSearchPlaceholder
	}
	return o
}

// Declarative activation attributes. A table carrying ActivationAttr is
// picked up by OptionsFromAttrs; the remaining attributes tune it.
const (
	ActivationAttr        = "data-simple-table"
	AttrPageSize          = "data-page-size"
	AttrSearch            = "data-search"
	AttrSort              = "data-sort"
	AttrPaging            = "data-paging"
	AttrEmptyTarget       = "data-empty-target"
	AttrSearchPlaceholder = "data-search-placeholder"
)

// Declared reports whether attrs carry the activation marker.
func Declared(attrs map[string]string) bool {
	if attrs == nil {
		return false
	}
	v, ok := attrs[ActivationAttr]
	return ok && strings.TrimSpace(v) != "false"
}

// OptionsFromAttrs builds Options from declarative attributes on top of the
// defaults. Only the literal "false" disables search, sort or paging; a page
// size that does not start with a positive integer is ignored. resolve maps
// the empty-target reference to a display target and may be nil.
func OptionsFromAttrs(attrs map[string]string, resolve func(ref string) EmptyTarget) Options {
	opts := DefaultOptions()
	if attrs == nil {
		return opts
	}
	if v, ok := attrs[AttrPageSize]; ok {
		if n, ok := leadingInt(v); ok && n > 0 {
			opts.PageSize = n
		}
	}
	if attrs[AttrSearch] == "false" {
		opts.Search = false
	}
	if attrs[AttrSort] == "false" {
		opts.Sort = false
	}
	if attrs[AttrPaging] == "false" {
		opts.Paging = false
	}
	if v := strings.TrimSpace(attrs[AttrSearchPlaceholder]); v != "" {
		opts.SearchPlaceholder = v
	}
	if ref := strings.TrimSpace(attrs[AttrEmptyTarget]); ref != "" && resolve != nil {
		if target := resolve(ref); target != nil {
			opts.EmptyState = target
		}
	}
	return opts
}

// leadingInt parses the leading decimal digits of s ("25rows" -> 25).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

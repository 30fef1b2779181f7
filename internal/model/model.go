package model

import (
	"strings"
)

// SectionDescriptor identifies one logical table of a project plan.
type SectionDescriptor struct {
	Key         string `json:"key" yaml:"key"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// CanEdit is copied from the host context; it is process-wide, not per section.
	CanEdit bool `json:"canEdit" yaml:"-"`
	// Singleton may be declared up front; the server payload has the final word.
	Singleton bool `json:"singleton,omitempty" yaml:"singleton,omitempty"`
}

type FieldSpec struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// RowRecord maps field names to scalar values. The "id" key is optional;
// a record without one is a template row that has never been saved.
type RowRecord map[string]Value

const IDField = "id"

// ID returns the row identifier as text.
func (r RowRecord) ID() (string, bool) {
	v, ok := r[IDField]
	if !ok || v.IsNull() {
		return "", false
	}
	id := strings.TrimSpace(v.Text())
	if id == "" || id == "0" {
		return "", false
	}
	return id, true
}

// Get returns the value for a field; absent fields read as null.
func (r RowRecord) Get(name string) Value {
	if r == nil {
		return Value{}
	}
	return r[name]
}

type SectionPayload struct {
	Fields    []FieldSpec `json:"fields"`
	Rows      []RowRecord `json:"rows"`
	Singleton bool        `json:"singleton"`
	Table     string      `json:"table,omitempty"`
}

// FindRow looks a row up by identifier.
func (p SectionPayload) FindRow(id string) (RowRecord, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	for _, r := range p.Rows {
		if rid, ok := r.ID(); ok && rid == id {
			return r, true
		}
	}
	return nil, false
}

// ExistingRow returns the first persisted row (one with an id).
func (p SectionPayload) ExistingRow() (RowRecord, bool) {
	for _, r := range p.Rows {
		if _, ok := r.ID(); ok {
			return r, true
		}
	}
	return nil, false
}

func (p SectionPayload) FieldNames() []string {
	out := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		out = append(out, f.Name)
	}
	return out
}

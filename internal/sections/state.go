// Package sections drives one active section at a time: fetch, render into a
// table widget, open forms, mutate and refresh from the server.
//
// Every operation that touches the network is split in two. Begin* mutates
// controller state and returns a request stamped with the current generation;
// Perform/Fetch run the request without touching state (safe off the UI
// loop); Apply* installs the outcome, discarding it with ErrStale when a newer
// activation happened in between.
package sections

import (
	"errors"

	"plansheet-cli/internal/form"
	"plansheet-cli/internal/model"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateMutating
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateMutating:
		return "mutating"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	ErrStale       = errors.New("stale response discarded")
	ErrReadOnly    = errors.New("editing is not permitted")
	ErrNoSection   = errors.New("no active section")
	ErrUnknownKey  = errors.New("unknown section")
	ErrNotLoaded   = errors.New("section is not loaded")
	ErrBusy        = errors.New("a request is already in flight")
	ErrNoForm      = errors.New("no form is open")
	ErrRowNotFound = errors.New("row not found")
)

// Generic notices shown when the server gives nothing more specific.
const (
	MsgLoadFailed    = "Unable to load data."
	MsgSaveFailed    = "Failed to save changes."
	MsgDeleteFailed  = "Failed to delete row."
	MsgConfirmDelete = "Are you sure you want to delete this entry?"
)

// Method is the pending mutation kind of an open form.
type Method int

const (
	MethodCreate Method = iota
	MethodUpdate
)

func (m Method) String() string {
	if m == MethodUpdate {
		return "update"
	}
	return "create"
}

// FormSession is the open add/edit form of the active section.
type FormSession struct {
	Title  string
	Method Method
	RowID  string
	Form   *form.Form
}

// Row is the table widget's handle for one record.
type Row struct {
	ID     string
	Record model.RowRecord
	cells  []string
}

func (r Row) Cells() []string { return r.cells }

// Template reports whether the row is an unsaved placeholder.
func (r Row) Template() bool { return r.ID == "" }

// ActionLabel is the label of the row's own action: a template row has
// nothing to edit yet, so it offers to create the record.
func (r Row) ActionLabel() string {
	if r.Template() {
		return "Create"
	}
	return "Edit"
}

func newRows(p model.SectionPayload) []Row {
	out := make([]Row, 0, len(p.Rows))
	for _, rec := range p.Rows {
		id, _ := rec.ID()
		cells := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			cells[i] = rec.Get(f.Name).Text()
		}
		out = append(out, Row{ID: id, Record: rec, cells: cells})
	}
	return out
}

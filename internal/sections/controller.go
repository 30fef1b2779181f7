package sections

import (
	"context"
	"fmt"
	"log/slog"

	"plansheet-cli/internal/api"
	"plansheet-cli/internal/form"
	"plansheet-cli/internal/host"
	"plansheet-cli/internal/model"
	"plansheet-cli/internal/table"
)

// Service is the external data service. *api.Client implements it.
type Service interface {
	FetchSection(ctx context.Context, key string) (model.SectionPayload, error)
	CreateRow(ctx context.Context, key string, values map[string]string) (api.MutationResult, error)
	UpdateRow(ctx context.Context, key, rowID string, values map[string]string) (api.MutationResult, error)
	DeleteRow(ctx context.Context, key, rowID string) error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTableOptions overrides how widget options are derived for a section.
func WithTableOptions(fn func(host.Section) table.Options) Option {
	return func(c *Controller) {
		if fn != nil {
			c.tableOpts = fn
		}
	}
}

// Controller is not safe for concurrent use; only Fetch and Perform may run
// off the owning goroutine.
type Controller struct {
	host      *host.Context
	svc       Service
	log       *slog.Logger
	tableOpts func(host.Section) table.Options

	gen     uint64
	state   State
	section host.Section
	active  bool
	payload model.SectionPayload
	widget  *table.Table[Row]
	form    *FormSession
	err     error
	notice  string
}

func New(h *host.Context, svc Service, opts ...Option) *Controller {
	c := &Controller{
		host: h,
		svc:  svc,
		log:  slog.New(slog.DiscardHandler),
		tableOpts: func(s host.Section) table.Options {
			return s.TableOptions(nil)
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Host() *host.Context { return c.host }
func (c *Controller) State() State        { return c.state }
func (c *Controller) Generation() uint64  { return c.gen }

// Section returns the active section, if any.
func (c *Controller) Section() (host.Section, bool) { return c.section, c.active }

// Payload is the last installed snapshot.
func (c *Controller) Payload() model.SectionPayload { return c.payload }

// Table is the widget over the loaded rows; nil unless Loaded or Mutating.
func (c *Controller) Table() *table.Table[Row] { return c.widget }

// Form is the open form session, if any.
func (c *Controller) Form() *FormSession { return c.form }

// Err is the fetch failure that put the controller in StateError.
func (c *Controller) Err() error { return c.err }

// Notice is the last blocking mutation failure message.
func (c *Controller) Notice() string { return c.notice }

func (c *Controller) DismissNotice() { c.notice = "" }

// Singleton reports whether the active section holds at most one record. The
// server payload has the final word over the host declaration.
func (c *Controller) Singleton() bool {
	if c.state == StateLoaded || c.state == StateMutating {
		return c.payload.Singleton
	}
	return c.section.Singleton
}

// AddLabel is the label of the add action for the active section.
func (c *Controller) AddLabel() string {
	if c.Singleton() {
		return "Edit"
	}
	return "Add Row"
}

// FetchRequest is a pending section read.
type FetchRequest struct {
	Gen uint64
	Key string
}

// FetchResult is the outcome of a FetchRequest.
type FetchResult struct {
	FetchRequest
	Payload model.SectionPayload
	Err     error
}

// BeginActivate discards all state of the previous section, including any open
// form, and moves to Loading.
func (c *Controller) BeginActivate(key string) (FetchRequest, error) {
	sec, ok := c.host.Section(key)
	if !ok {
		return FetchRequest{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	c.gen++
	c.section = sec
	c.active = true
	c.state = StateLoading
	c.payload = model.SectionPayload{}
	c.widget = nil
	c.form = nil
	c.err = nil
	c.notice = ""
	c.log.Debug("activate", "section", key, "gen", c.gen)
	return FetchRequest{Gen: c.gen, Key: key}, nil
}

// BeginRefresh re-runs activation for the active section.
func (c *Controller) BeginRefresh() (FetchRequest, error) {
	if !c.active {
		return FetchRequest{}, ErrNoSection
	}
	return c.BeginActivate(c.section.Key)
}

// Fetch performs the read. It does not touch controller state.
func (c *Controller) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	p, err := c.svc.FetchSection(ctx, req.Key)
	return FetchResult{FetchRequest: req, Payload: p, Err: err}
}

// ApplyFetch installs a fetch result and builds a fresh widget over its rows.
func (c *Controller) ApplyFetch(res FetchResult) error {
	if res.Gen != c.gen || !c.active || res.Key != c.section.Key {
		c.log.Debug("discard stale fetch", "section", res.Key, "gen", res.Gen, "current", c.gen)
		return ErrStale
	}
	if res.Err != nil {
		c.state = StateError
		c.err = res.Err
		c.log.Warn("fetch failed", "section", res.Key, "err", res.Err)
		return res.Err
	}
	c.payload = res.Payload
	c.widget = table.New(columnsFor(res.Payload), newRows(res.Payload), c.tableOpts(c.section))
	c.state = StateLoaded
	c.err = nil
	c.log.Debug("loaded", "section", res.Key, "rows", len(res.Payload.Rows))
	return nil
}

func columnsFor(p model.SectionPayload) []table.Column {
	cols := make([]table.Column, 0, len(p.Fields))
	for _, f := range p.Fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		cols = append(cols, table.Column{Label: label, Sortable: true})
	}
	return cols
}

// Activate runs a full activation synchronously.
func (c *Controller) Activate(ctx context.Context, key string) error {
	req, err := c.BeginActivate(key)
	if err != nil {
		return err
	}
	return c.ApplyFetch(c.Fetch(ctx, req))
}

// Refresh re-fetches the active section synchronously.
func (c *Controller) Refresh(ctx context.Context) error {
	req, err := c.BeginRefresh()
	if err != nil {
		return err
	}
	return c.ApplyFetch(c.Fetch(ctx, req))
}

func (c *Controller) requireEditable() error {
	if !c.active {
		return ErrNoSection
	}
	if !c.host.CanEdit() {
		return ErrReadOnly
	}
	switch c.state {
	case StateLoaded:
		return nil
	case StateMutating:
		return ErrBusy
	default:
		return ErrNotLoaded
	}
}

// BeginCreate opens the add form. On a singleton section with a saved record
// it opens that record for update instead; with only a template row the form
// is pre-filled from it.
func (c *Controller) BeginCreate() (*FormSession, error) {
	if err := c.requireEditable(); err != nil {
		return nil, err
	}
	s := &FormSession{Method: MethodCreate}
	var rec model.RowRecord
	if c.payload.Singleton {
		s.Title = "Edit " + c.section.Title
		if existing, ok := c.payload.ExistingRow(); ok {
			rec = existing
			s.Method = MethodUpdate
			s.RowID, _ = existing.ID()
		} else if len(c.payload.Rows) > 0 {
			rec = c.payload.Rows[0]
		}
	} else {
		s.Title = "Add " + c.section.Title
	}
	s.Form = form.Build(c.payload.Fields, rec)
	c.form = s
	return s, nil
}

// BeginEdit opens the form pre-populated from a loaded row.
func (c *Controller) BeginEdit(rowID string) (*FormSession, error) {
	if err := c.requireEditable(); err != nil {
		return nil, err
	}
	rec, ok := c.payload.FindRow(rowID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRowNotFound, rowID)
	}
	id, _ := rec.ID()
	s := &FormSession{
		Title:  "Edit Row",
		Method: MethodUpdate,
		RowID:  id,
		Form:   form.Build(c.payload.Fields, rec),
	}
	c.form = s
	return s, nil
}

// CancelForm closes the open form without submitting.
func (c *Controller) CancelForm() { c.form = nil }

// Begin opens the add form or, given a row id, the edit form. Template rows of
// a singleton have no id and map to add.
func (c *Controller) Begin(rowID string) (*FormSession, error) {
	if rowID == "" {
		return c.BeginCreate()
	}
	return c.BeginEdit(rowID)
}

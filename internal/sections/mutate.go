package sections

import (
	"context"
	"errors"
	"fmt"

	"plansheet-cli/internal/api"
	"plansheet-cli/internal/form"
)

type MutationKind int

const (
	MutateCreate MutationKind = iota
	MutateUpdate
	MutateDelete
)

func (k MutationKind) String() string {
	switch k {
	case MutateUpdate:
		return "update"
	case MutateDelete:
		return "delete"
	default:
		return "create"
	}
}

// MutationRequest is a pending write against the active section.
type MutationRequest struct {
	Gen    uint64
	Key    string
	Kind   MutationKind
	RowID  string
	Values map[string]string
}

// MutationResult is the outcome of a MutationRequest.
type MutationResult struct {
	MutationRequest
	Saved api.MutationResult
	Err   error
}

// MutationError is a failed write as presented to the user.
type MutationError struct {
	Kind    MutationKind
	Message string
	// Mapping is set for create/update failures.
	Mapping form.ErrorMapping
	Err     error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *MutationError) Unwrap() error { return e.Err }

// BeginSubmit extracts the open form's values into a create or update request:
// update when a row id is pending, create otherwise.
func (c *Controller) BeginSubmit() (MutationRequest, error) {
	if err := c.requireEditable(); err != nil {
		return MutationRequest{}, err
	}
	if c.form == nil {
		return MutationRequest{}, ErrNoForm
	}
	req := MutationRequest{
		Gen:    c.gen,
		Key:    c.section.Key,
		Kind:   MutateCreate,
		RowID:  c.form.RowID,
		Values: c.form.Form.Values(),
	}
	if req.RowID != "" {
		req.Kind = MutateUpdate
	}
	c.state = StateMutating
	c.notice = ""
	return req, nil
}

// BeginDelete starts deleting a persisted row. Confirmation is the caller's
// job and must happen before this call.
func (c *Controller) BeginDelete(rowID string) (MutationRequest, error) {
	if err := c.requireEditable(); err != nil {
		return MutationRequest{}, err
	}
	rec, ok := c.payload.FindRow(rowID)
	if !ok {
		return MutationRequest{}, fmt.Errorf("%w: %q", ErrRowNotFound, rowID)
	}
	id, _ := rec.ID()
	c.state = StateMutating
	c.notice = ""
	return MutationRequest{Gen: c.gen, Key: c.section.Key, Kind: MutateDelete, RowID: id}, nil
}

// Perform issues the write. It does not touch controller state.
func (c *Controller) Perform(ctx context.Context, req MutationRequest) MutationResult {
	res := MutationResult{MutationRequest: req}
	switch req.Kind {
	case MutateCreate:
		res.Saved, res.Err = c.svc.CreateRow(ctx, req.Key, req.Values)
	case MutateUpdate:
		res.Saved, res.Err = c.svc.UpdateRow(ctx, req.Key, req.RowID, req.Values)
	case MutateDelete:
		res.Err = c.svc.DeleteRow(ctx, req.Key, req.RowID)
	default:
		res.Err = fmt.Errorf("unknown mutation kind %d", req.Kind)
	}
	return res
}

// ApplyMutation records the outcome of a write. Success closes the form and
// returns the refresh to run; loaded rows are never patched locally. Failure
// leaves rows untouched, keeps the form open with the server's messages and
// returns a *MutationError.
func (c *Controller) ApplyMutation(res MutationResult) (FetchRequest, error) {
	if res.Gen != c.gen || !c.active || res.Key != c.section.Key {
		c.log.Debug("discard stale mutation", "section", res.Key, "kind", res.Kind, "gen", res.Gen, "current", c.gen)
		return FetchRequest{}, ErrStale
	}
	if c.state == StateMutating {
		c.state = StateLoaded
	}
	if res.Err != nil {
		c.log.Warn("mutation failed", "section", res.Key, "kind", res.Kind, "row", res.RowID, "err", res.Err)
		return FetchRequest{}, c.mutationFailed(res)
	}
	c.log.Debug("mutation applied", "section", res.Key, "kind", res.Kind, "row", res.RowID, "saved", res.Saved.ID)
	// Activation discards the form along with every other piece of local state.
	return c.BeginRefresh()
}

func (c *Controller) mutationFailed(res MutationResult) error {
	merr := &MutationError{Kind: res.Kind, Err: res.Err}
	if res.Kind == MutateDelete {
		merr.Message = MsgDeleteFailed
		c.notice = merr.Message
		return merr
	}

	var names []string
	if c.form != nil {
		names = c.form.Form.Names()
	}
	var ve *api.ValidationError
	if errors.As(res.Err, &ve) {
		merr.Mapping = form.MapErrors(names, ve.Fields)
	}
	if merr.Mapping.Empty() {
		merr.Mapping.Form = []string{MsgSaveFailed}
	}
	merr.Message = summarize(merr.Mapping)
	if c.form != nil {
		c.form.Form.SetErrors(merr.Mapping)
	} else {
		c.notice = merr.Message
	}
	return merr
}

func summarize(m form.ErrorMapping) string {
	if len(m.Form) > 0 {
		return m.Form[0]
	}
	for _, msgs := range m.Fields {
		if len(msgs) > 0 {
			return "Please correct the highlighted fields."
		}
	}
	return MsgSaveFailed
}

// Submit runs a full submit synchronously, including the refresh on success.
func (c *Controller) Submit(ctx context.Context) error {
	req, err := c.BeginSubmit()
	if err != nil {
		return err
	}
	return c.finish(ctx, c.Perform(ctx, req))
}

// Delete asks for confirmation and deletes a row synchronously. A declined
// confirmation is a silent no-op.
func (c *Controller) Delete(ctx context.Context, rowID string, confirm Confirmer) error {
	if err := c.requireEditable(); err != nil {
		return err
	}
	if _, ok := c.payload.FindRow(rowID); !ok {
		return fmt.Errorf("%w: %q", ErrRowNotFound, rowID)
	}
	if confirm == nil {
		return errors.New("delete requires confirmation")
	}
	ok, err := confirm.Confirm(ctx, MsgConfirmDelete)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	req, err := c.BeginDelete(rowID)
	if err != nil {
		return err
	}
	return c.finish(ctx, c.Perform(ctx, req))
}

func (c *Controller) finish(ctx context.Context, res MutationResult) error {
	refresh, err := c.ApplyMutation(res)
	if err != nil {
		return err
	}
	return c.ApplyFetch(c.Fetch(ctx, refresh))
}

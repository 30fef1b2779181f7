package tui

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"plansheet-cli/internal/api"
	"plansheet-cli/internal/host"
	"plansheet-cli/internal/model"
	"plansheet-cli/internal/sections"
	"plansheet-cli/internal/store"
)

type fakeService struct {
	fields    map[string][]model.FieldSpec
	rows      map[string][]model.RowRecord
	singleton map[string]bool
	nextID    int

	creates   []map[string]string
	deletes   []string
	saveErr   error
	deleteErr error
}

func newFakeService() *fakeService {
	return &fakeService{
		fields: map[string][]model.FieldSpec{
			"milestones": {
				{Name: "title", Label: "Title", Type: "text"},
				{Name: "owner", Label: "Owner", Type: "text"},
			},
			"overview": {{Name: "content", Label: "Content", Type: "TextField"}},
		},
		rows: map[string][]model.RowRecord{
			"milestones": {
				{"id": model.Int(1), "title": model.String("Alpha"), "owner": model.String("")},
				{"id": model.Int(2), "title": model.String("Beta"), "owner": model.String("Kim")},
			},
		},
		singleton: map[string]bool{"overview": true},
		nextID:    10,
	}
}

func (f *fakeService) FetchSection(_ context.Context, key string) (model.SectionPayload, error) {
	return model.SectionPayload{
		Fields:    f.fields[key],
		Rows:      slices.Clone(f.rows[key]),
		Singleton: f.singleton[key],
	}, nil
}

func (f *fakeService) CreateRow(_ context.Context, key string, values map[string]string) (api.MutationResult, error) {
	f.creates = append(f.creates, values)
	if f.saveErr != nil {
		return api.MutationResult{}, f.saveErr
	}
	f.nextID++
	rec := model.RowRecord{"id": model.Int(int64(f.nextID))}
	for k, v := range values {
		rec[k] = model.String(v)
	}
	f.rows[key] = append(f.rows[key], rec)
	return api.MutationResult{ID: strconv.Itoa(f.nextID), Row: rec}, nil
}

func (f *fakeService) UpdateRow(_ context.Context, key, rowID string, values map[string]string) (api.MutationResult, error) {
	if f.saveErr != nil {
		return api.MutationResult{}, f.saveErr
	}
	for _, rec := range f.rows[key] {
		if id, _ := rec.ID(); id == rowID {
			for k, v := range values {
				rec[k] = model.String(v)
			}
			return api.MutationResult{ID: rowID, Row: rec}, nil
		}
	}
	return api.MutationResult{}, errors.New("not found")
}

func (f *fakeService) DeleteRow(_ context.Context, key, rowID string) error {
	f.deletes = append(f.deletes, rowID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.rows[key] = slices.DeleteFunc(f.rows[key], func(r model.RowRecord) bool {
		id, _ := r.ID()
		return id == rowID
	})
	return nil
}

func newTestModel(t *testing.T, canEdit bool, st store.Store) (appModel, *fakeService) {
	t.Helper()
	h, err := host.New(host.Input{ServerURL: "http://planner.test", ProjectID: "7", CanEdit: canEdit}, []host.Section{
		{SectionDescriptor: model.SectionDescriptor{Key: "milestones", Title: "Milestones"}},
		{SectionDescriptor: model.SectionDescriptor{Key: "overview", Title: "Overview", Singleton: true}},
	})
	if err != nil {
		t.Fatalf("host.New: %v", err)
	}
	svc := newFakeService()
	m := newAppModel(context.Background(), h, svc, Options{Store: st})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(appModel), svc
}

// collect runs cmd and returns the controller messages it produces. Timers
// and cursor blinks are left behind.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(100 * time.Millisecond):
		return nil
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case sectionLoadedMsg, mutationDoneMsg:
		return []tea.Msg{msg}
	}
	return nil
}

// drive feeds msg to the model and keeps running follow-up commands until
// the controller settles.
func drive(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next, cmd := m.Update(queue[0])
		m = next.(appModel)
		queue = append(queue[1:], collect(cmd)...)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func typeText(t *testing.T, m appModel, s string) appModel {
	t.Helper()
	for _, r := range s {
		m = drive(t, m, runes(string(r)))
	}
	return m
}

func start(t *testing.T, m appModel) appModel {
	t.Helper()
	queue := collect(m.Init())
	for _, msg := range queue {
		m = drive(t, m, msg)
	}
	return m
}

func titles(m appModel) []string {
	var out []string
	for _, r := range m.visibleRows() {
		out = append(out, r.Cells()[0])
	}
	return out
}

func TestInit_ActivatesFirstSection(t *testing.T) {
	m, _ := newTestModel(t, true, store.Store{})
	m = start(t, m)

	sec, ok := m.ctrl.Section()
	if !ok || sec.Key != "milestones" {
		t.Fatalf("active section = %q, %v", sec.Key, ok)
	}
	if m.ctrl.State() != sections.StateLoaded {
		t.Fatalf("state = %v", m.ctrl.State())
	}
	if diff := cmp.Diff([]string{"Alpha", "Beta"}, titles(m)); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	view := m.View()
	for _, want := range []string{"Milestones", "Alpha", "Kim", emptyCell, "2 rows"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestInit_RestoresLastSection(t *testing.T) {
	st := store.Store{Dir: t.TempDir()}
	m, _ := newTestModel(t, true, st)
	m = start(t, m)
	m = drive(t, m, sectionLoadedMsg{res: m.ctrl.Fetch(context.Background(), mustBegin(t, m, "overview"))})

	again, _ := newTestModel(t, true, st)
	if again.initialKey != "overview" {
		t.Fatalf("initial section = %q, want overview", again.initialKey)
	}
}

func mustBegin(t *testing.T, m appModel, key string) sections.FetchRequest {
	t.Helper()
	req, err := m.ctrl.BeginActivate(key)
	if err != nil {
		t.Fatalf("BeginActivate(%q): %v", key, err)
	}
	return req
}

func TestSectionLoaded_DiscardsStaleFetch(t *testing.T) {
	m, _ := newTestModel(t, true, store.Store{})
	first := collect((&m).activate("milestones"))
	second := collect((&m).activate("overview"))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one fetch per activation, got %d and %d", len(first), len(second))
	}

	m = drive(t, m, first[0])
	if m.ctrl.State() != sections.StateLoading {
		t.Fatalf("stale result should leave the newer load pending, state = %v", m.ctrl.State())
	}
	m = drive(t, m, second[0])
	sec, _ := m.ctrl.Section()
	if sec.Key != "overview" || m.ctrl.State() != sections.StateLoaded {
		t.Fatalf("section = %q state = %v", sec.Key, m.ctrl.State())
	}
}

func TestSearch_FiltersAsYouType(t *testing.T) {
	m, _ := newTestModel(t, true, store.Store{})
	m = start(t, m)

	m = drive(t, m, runes("/"))
	if !m.searching {
		t.Fatalf("expected search mode")
	}
	m = typeText(t, m, "bet")
	if diff := cmp.Diff([]string{"Beta"}, titles(m)); diff != "" {
		t.Fatalf("filtered rows (-want +got):\n%s", diff)
	}

	m = typeText(t, m, "zz")
	if !m.banner.visible {
		t.Fatalf("empty banner should show when nothing matches")
	}
	if !strings.Contains(m.View(), noRowsMessage) {
		t.Fatalf("view should carry the empty-state message")
	}

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.searching || m.ctrl.Table().Query() != "" || m.banner.visible {
		t.Fatalf("esc should clear the search")
	}
	if len(titles(m)) != 2 {
		t.Fatalf("rows after clearing = %v", titles(m))
	}
}

func TestSortKeys_ToggleDirection(t *testing.T) {
	m, _ := newTestModel(t, true, store.Store{})
	m = start(t, m)

	m = drive(t, m, runes("1"))
	if diff := cmp.Diff([]string{"Alpha", "Beta"}, titles(m)); diff != "" {
		t.Fatalf("ascending (-want +got):\n%s", diff)
	}
	m = drive(t, m, runes("1"))
	if diff := cmp.Diff([]string{"Beta", "Alpha"}, titles(m)); diff != "" {
		t.Fatalf("descending (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.View(), "▼") {
		t.Fatalf("header should show the descending marker")
	}
}

func TestReadOnly_DisablesEditing(t *testing.T) {
	m, _ := newTestModel(t, false, store.Store{})
	m = start(t, m)

	for _, k := range []string{"a", "e", "d"} {
		m = drive(t, m, runes(k))
		if m.modal != modalNone {
			t.Fatalf("%q opened modal %v in read-only mode", k, m.modal)
		}
	}
	if !strings.Contains(m.View(), "read-only") {
		t.Fatalf("header should flag read-only mode")
	}
}

func TestAddForm_ValidationThenSave(t *testing.T) {
	m, svc := newTestModel(t, true, store.Store{})
	m = start(t, m)

	m = drive(t, m, runes("a"))
	if m.modal != modalForm || len(m.form.fields) != 2 {
		t.Fatalf("add should open a two-field form, modal = %v", m.modal)
	}

	svc.saveErr = &api.ValidationError{Status: 400, Fields: map[string][]string{"title": {"This field is required."}}}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.modal != modalForm || m.form.busy {
		t.Fatalf("form should stay open after a rejected save")
	}
	if diff := cmp.Diff([]string{"This field is required."}, m.form.fields[0].errors); diff != "" {
		t.Fatalf("field errors (-want +got):\n%s", diff)
	}
	if m.form.focus != 0 {
		t.Fatalf("focus should move to the first field with errors")
	}

	svc.saveErr = nil
	m = typeText(t, m, "Gamma")
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "Lee")
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.modal != modalNone {
		t.Fatalf("form should close after saving, modal = %v", m.modal)
	}
	want := map[string]string{"title": "Gamma", "owner": "Lee"}
	if diff := cmp.Diff(want, svc.creates[len(svc.creates)-1]); diff != "" {
		t.Fatalf("created values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alpha", "Beta", "Gamma"}, titles(m)); diff != "" {
		t.Fatalf("rows after refresh (-want +got):\n%s", diff)
	}
	if m.minibuffer != "Saved." {
		t.Fatalf("minibuffer = %q", m.minibuffer)
	}
}

func TestFormEscape_Cancels(t *testing.T) {
	m, svc := newTestModel(t, true, store.Store{})
	m = start(t, m)

	m = drive(t, m, runes("e"))
	if m.modal != modalForm || m.form.fields[0].value() != "Alpha" {
		t.Fatalf("edit should open a prefilled form")
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != modalNone || m.ctrl.Form() != nil {
		t.Fatalf("esc should discard the form")
	}
	if len(svc.creates) != 0 {
		t.Fatalf("cancel must not save")
	}
}

func TestDelete_ConfirmRemovesRow(t *testing.T) {
	m, svc := newTestModel(t, true, store.Store{})
	m = start(t, m)

	m = drive(t, m, runes("d"))
	if m.modal != modalConfirmDelete || m.deleteRowID != "1" {
		t.Fatalf("expected delete confirmation for row 1, modal = %v id = %q", m.modal, m.deleteRowID)
	}
	if !strings.Contains(m.View(), sections.MsgConfirmDelete) {
		t.Fatalf("confirm modal should carry the prompt")
	}

	m = drive(t, m, runes("y"))
	if diff := cmp.Diff([]string{"1"}, svc.deletes); diff != "" {
		t.Fatalf("deletes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Beta"}, titles(m)); diff != "" {
		t.Fatalf("rows after delete (-want +got):\n%s", diff)
	}
}

func TestDelete_DeclineKeepsRow(t *testing.T) {
	m, svc := newTestModel(t, true, store.Store{})
	m = start(t, m)

	m = drive(t, m, runes("d"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != modalNone || len(svc.deletes) != 0 {
		t.Fatalf("enter on the default cancel button must not delete")
	}
}

func TestDelete_FailureShowsNotice(t *testing.T) {
	m, svc := newTestModel(t, true, store.Store{})
	m = start(t, m)
	svc.deleteErr = errors.New("boom")

	m = drive(t, m, runes("d"))
	m = drive(t, m, runes("y"))
	if m.modal != modalNotice || m.ctrl.Notice() != sections.MsgDeleteFailed {
		t.Fatalf("expected delete failure notice, modal = %v notice = %q", m.modal, m.ctrl.Notice())
	}
	if len(titles(m)) != 2 {
		t.Fatalf("rows must be untouched after a failed delete")
	}

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != modalNone || m.ctrl.Notice() != "" {
		t.Fatalf("enter should dismiss the notice")
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"plansheet-cli/internal/catalog"
	"plansheet-cli/internal/form"
	"plansheet-cli/internal/store"
	"plansheet-cli/internal/web"
)

type scriptedPrompter struct {
	answers map[string][]string
	confirm bool
	asked   []string
}

func (p *scriptedPrompter) Field(_ context.Context, f form.Field) (string, error) {
	p.asked = append(p.asked, f.Label)
	q := p.answers[f.Name]
	if len(q) == 0 {
		return f.Value, nil
	}
	p.answers[f.Name] = q[1:]
	return q[0], nil
}

func (p *scriptedPrompter) Confirm(context.Context, string) (bool, error) {
	return p.confirm, nil
}

func startServer(t *testing.T, cfg web.ServerConfig) string {
	t.Helper()
	rows, err := store.OpenRows(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenRows: %v", err)
	}
	t.Cleanup(func() { _ = rows.Close() })
	srv, err := web.NewServer(cfg, catalog.Builtin(), rows, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func runCLI(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("PLANSHEET_CONFIG_DIR", t.TempDir())
	if app.prompts == nil {
		app.prompts = &scriptedPrompter{}
	}
	cmd := newRootCmd(app)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type showResult struct {
	Data struct {
		Key       string                       `json:"key"`
		Rows      []map[string]json.RawMessage `json:"rows"`
		Total     int                          `json:"total"`
		Page      int                          `json:"page"`
		PageCount int                          `json:"pageCount"`
		Sort      *sortOutput                  `json:"sort"`
	} `json:"data"`
}

func decodeShow(t *testing.T, out string) showResult {
	t.Helper()
	var res showResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return res
}

func cell(row map[string]json.RawMessage, name string) string {
	var s string
	if err := json.Unmarshal(row[name], &s); err != nil {
		return string(row[name])
	}
	return s
}

func TestSectionsShow_TemplateRowsSortedAndPaged(t *testing.T) {
	url := startServer(t, web.ServerConfig{})
	out, _, err := runCLI(t, &App{}, "--server", url, "--project", "1", "--format", "json",
		"sections", "show", "deliverables", "--sort", "sl_no", "--desc", "--page-size", "5", "--page", "2")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	res := decodeShow(t, out)
	if res.Data.Total != 12 || res.Data.PageCount != 3 || res.Data.Page != 2 {
		t.Fatalf("paging: %+v", res.Data)
	}
	if diff := cmp.Diff(&sortOutput{Column: "sl_no", Direction: "desc"}, res.Data.Sort); diff != "" {
		t.Fatalf("sort (-want +got):\n%s", diff)
	}
	if got := cell(res.Data.Rows[0], "sl_no"); got != "7" {
		t.Fatalf("first row on page 2 = %s, want 7", got)
	}
	if string(res.Data.Rows[0]["id"]) != "null" {
		t.Fatalf("template rows carry a null id, got %s", res.Data.Rows[0]["id"])
	}
}

func TestRows_AddEditDelete(t *testing.T) {
	url := startServer(t, web.ServerConfig{})
	base := []string{"--server", url, "--project", "9", "--format", "json"}
	run := func(args ...string) string {
		t.Helper()
		out, stderr, err := runCLI(t, &App{}, append(append([]string{}, base...), args...)...)
		if err != nil {
			t.Fatalf("%v: %v\nstderr: %s\nstdout: %s", args, err, stderr, out)
		}
		return out
	}

	run("rows", "add", "definitions", "--set", "term=WBS", "--set", "definition=Work breakdown structure")
	res := decodeShow(t, run("sections", "show", "definitions"))
	if len(res.Data.Rows) != 1 || cell(res.Data.Rows[0], "term") != "WBS" {
		t.Fatalf("after add: %+v", res.Data.Rows)
	}
	id := string(res.Data.Rows[0]["id"])

	run("rows", "edit", "definitions", id, "--set", "term=RACI")
	res = decodeShow(t, run("sections", "show", "definitions"))
	if cell(res.Data.Rows[0], "term") != "RACI" || cell(res.Data.Rows[0], "definition") != "Work breakdown structure" {
		t.Fatalf("after edit: %+v", res.Data.Rows[0])
	}

	run("rows", "delete", "definitions", id, "--yes")
	res = decodeShow(t, run("sections", "show", "definitions"))
	if len(res.Data.Rows) != 0 {
		t.Fatalf("after delete: %+v", res.Data.Rows)
	}
}

func TestRowsAdd_ValidationErrorsAsData(t *testing.T) {
	url := startServer(t, web.ServerConfig{})
	out, _, err := runCLI(t, &App{}, "--server", url, "--project", "1", "--format", "json",
		"rows", "add", "definitions", "--set", "term=WBS")
	if err == nil {
		t.Fatalf("expected failure")
	}
	var payload struct {
		Error struct {
			Kind   string              `json:"kind"`
			Errors map[string][]string `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := map[string][]string{"definition": {"This field is required."}}
	if diff := cmp.Diff(want, payload.Error.Errors); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
}

func TestRowsAdd_InteractiveRetriesAfterFieldErrors(t *testing.T) {
	url := startServer(t, web.ServerConfig{})
	p := &scriptedPrompter{answers: map[string][]string{
		"term":       {"WBS", "WBS"},
		"definition": {"", "Work breakdown structure"},
	}}
	_, stderr, err := runCLI(t, &App{prompts: p}, "--server", url, "--project", "1",
		"rows", "add", "definitions", "-i")
	if err != nil {
		t.Fatalf("add -i: %v\n%s", err, stderr)
	}
	if len(p.asked) != 4 {
		t.Fatalf("expected two prompt rounds, asked %v", p.asked)
	}
	if !strings.Contains(p.asked[3], "This field is required.") {
		t.Fatalf("retry prompt should carry the server message, got %q", p.asked[3])
	}
}

func TestRowsDelete_DeclinedIsNoop(t *testing.T) {
	url := startServer(t, web.ServerConfig{})
	args := []string{"--server", url, "--project", "1"}
	if _, _, err := runCLI(t, &App{}, append(args, "rows", "add", "definitions", "--set", "term=A", "--set", "definition=B")...); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, &App{}, append(args, "--format", "json", "sections", "show", "definitions")...)
	if err != nil {
		t.Fatal(err)
	}
	id := string(decodeShow(t, out).Data.Rows[0]["id"])

	out, _, err = runCLI(t, &App{prompts: &scriptedPrompter{confirm: false}}, append(args, "rows", "delete", "definitions", id)...)
	if err != nil || !strings.Contains(out, "Cancelled.") {
		t.Fatalf("declined delete: %q %v", out, err)
	}
	out, _, _ = runCLI(t, &App{}, append(args, "--format", "json", "sections", "show", "definitions")...)
	if n := len(decodeShow(t, out).Data.Rows); n != 1 {
		t.Fatalf("row should survive a declined delete, have %d", n)
	}
}

func TestRowsAdd_ReadOnly(t *testing.T) {
	url := startServer(t, web.ServerConfig{})
	_, stderr, err := runCLI(t, &App{}, "--server", url, "--project", "1", "--read-only",
		"rows", "add", "definitions", "--set", "term=A")
	if err == nil || !strings.Contains(stderr, "not permitted") {
		t.Fatalf("expected read-only error, got %v / %q", err, stderr)
	}
}

func TestMissingServer(t *testing.T) {
	t.Setenv("PLANSHEET_SERVER", "")
	_, stderr, err := runCLI(t, &App{}, "sections", "show", "deliverables")
	if err == nil || !strings.Contains(stderr, "missing server") {
		t.Fatalf("got %v / %q", err, stderr)
	}
}

func TestColumnIndex(t *testing.T) {
	sec, _ := catalog.Builtin().Lookup("deliverables")
	fields := sec.FieldSpecs()
	for ref, want := range map[string]int{"sl_no": 0, "Work Product": 1, "3": 2} {
		got, err := columnIndex(fields, ref)
		if err != nil || got != want {
			t.Fatalf("columnIndex(%q) = %d, %v", ref, got, err)
		}
	}
	if _, err := columnIndex(fields, "nope"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConfigSetShow_MasksSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLANSHEET_CONFIG_DIR", dir)
	cmd := newRootCmd(&App{prompts: &scriptedPrompter{}})
	cmd.SetArgs([]string{"config", "set", "token", "abcdef123"})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd = newRootCmd(&App{prompts: &scriptedPrompter{}})
	cmd.SetArgs([]string{"--format", "json", "config", "show"})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"token":"ab****23"`) {
		t.Fatalf("token should be masked: %s", out.String())
	}
}

func TestExport_AllSections(t *testing.T) {
	url := startServer(t, web.ServerConfig{})
	out, _, err := runCLI(t, &App{}, "--server", url, "--project", "1", "--format", "json", "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var doc struct {
		Sections []struct {
			Key     string `json:"key"`
			Payload struct {
				Fields []json.RawMessage `json:"fields"`
			} `json:"payload"`
		} `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var want, got []string
	for _, d := range catalog.Builtin().Descriptors() {
		want = append(want, d.Key)
	}
	for _, s := range doc.Sections {
		got = append(got, s.Key)
		if len(s.Payload.Fields) == 0 {
			t.Fatalf("section %s exported without fields", s.Key)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("exported sections (-want +got):\n%s", diff)
	}
}

func TestExport_FailureWritesNothing(t *testing.T) {
	url := startServer(t, web.ServerConfig{Projects: []string{"1"}})
	out, _, err := runCLI(t, &App{}, "--server", url, "--project", "2", "--format", "json", "export")
	if err == nil {
		t.Fatalf("expected export to fail for an unknown project")
	}
	if strings.Contains(out, `"sections"`) {
		t.Fatalf("partial export written: %s", out)
	}
}

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"plansheet-cli/internal/catalog"
	"plansheet-cli/internal/model"
	"plansheet-cli/internal/store"
)

func newTestServer(t *testing.T, cfg ServerConfig) *httptest.Server {
	t.Helper()
	rows, err := store.OpenRows(context.Background(), filepath.Join(t.TempDir(), "rows.db"))
	if err != nil {
		t.Fatalf("OpenRows: %v", err)
	}
	t.Cleanup(func() { _ = rows.Close() })
	s, err := NewServer(cfg, catalog.Builtin(), rows, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string, hdr map[string]string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func fetchPayload(t *testing.T, url string) model.SectionPayload {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	var p model.SectionPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestSection_DefaultRowsHaveNullID(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	p := fetchPayload(t, ts.URL+"/projects/1/sections/deliverables/")
	if p.Table != "deliverables" || len(p.Rows) == 0 {
		t.Fatalf("unexpected payload: table=%q rows=%d", p.Table, len(p.Rows))
	}
	for _, r := range p.Rows {
		if _, ok := r.ID(); ok {
			t.Fatalf("template row should have no id: %v", r)
		}
	}
	if len(p.Fields) == 0 {
		t.Fatalf("expected field metadata")
	}
}

func TestSection_Unknown(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	code, body := doJSON(t, http.MethodGet, ts.URL+"/projects/1/sections/nope/", "", nil)
	if code != http.StatusNotFound || body["error"] != "Unknown table" {
		t.Fatalf("got %d %v", code, body)
	}
}

func TestRows_CreateUpdateDelete(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	base := ts.URL + "/projects/1/sections/assumptions/"

	code, body := doJSON(t, http.MethodPost, base+"rows", `{"sl_no":1,"brief_description":"Budget approved"}`, nil)
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("create: %d %v", code, body)
	}
	id := body["id"].(float64)

	p := fetchPayload(t, base)
	if len(p.Rows) != 1 || p.Rows[0].Get("brief_description").Text() != "Budget approved" {
		t.Fatalf("rows after create: %v", p.Rows)
	}
	rowURL := base + "rows/" + jsonNumber(id) + "/"

	code, body = doJSON(t, http.MethodPut, rowURL, `{"sl_no":1,"brief_description":"Budget pending"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("update: %d %v", code, body)
	}
	p = fetchPayload(t, base)
	if got := p.Rows[0].Get("brief_description").Text(); got != "Budget pending" {
		t.Fatalf("after update: %q", got)
	}

	code, _ = doJSON(t, http.MethodDelete, rowURL, "", nil)
	if code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	code, body = doJSON(t, http.MethodDelete, rowURL, "", nil)
	if code != http.StatusNotFound || body["error"] != "Row not found" {
		t.Fatalf("second delete: %d %v", code, body)
	}
}

func jsonNumber(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestRows_ValidationErrors(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	code, body := doJSON(t, http.MethodPost, ts.URL+"/projects/1/sections/stakeholders/rows/", `{"sl_no":1,"stakeholder_type":"Internal","role":"Sponsor","name":"","contact_email":"not-an-email"}`, nil)
	if code != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("got %d %v", code, body)
	}
	errs, _ := body["errors"].(map[string]any)
	want := map[string]any{
		"name":          []any{msgRequired},
		"contact_email": []any{"Enter a valid email address."},
	}
	for k, v := range want {
		if diff := cmp.Diff(v, errs[k]); diff != "" {
			t.Fatalf("errors[%s] (-want +got):\n%s", k, diff)
		}
	}
}

func TestRows_SingletonGetOrCreate(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	base := ts.URL + "/projects/1/sections/product-overview/"
	sec, _ := catalog.Builtin().Lookup("product-overview")
	field := sec.Fields[0].Name

	for _, text := range []string{"first", "second"} {
		code, body := doJSON(t, http.MethodPut, base+"rows/", `{"`+field+`":"`+text+`"}`, nil)
		if code != http.StatusOK {
			t.Fatalf("put %s: %d %v", text, code, body)
		}
	}
	p := fetchPayload(t, base)
	if !p.Singleton || len(p.Rows) != 1 {
		t.Fatalf("singleton should hold one row, got %d", len(p.Rows))
	}
	if got := p.Rows[0].Get(field).Text(); got != "second" {
		t.Fatalf("singleton value: %q", got)
	}
}

func TestWrites_ReadOnlyAndCSRF(t *testing.T) {
	ro := newTestServer(t, ServerConfig{ReadOnly: true})
	code, body := doJSON(t, http.MethodPost, ro.URL+"/projects/1/sections/assumptions/rows", `{"sl_no":2,"brief_description":"x"}`, nil)
	if code != http.StatusForbidden || body["error"] != "Editing not permitted" {
		t.Fatalf("read-only: %d %v", code, body)
	}

	csrf := newTestServer(t, ServerConfig{CSRFToken: "tok"})
	url := csrf.URL + "/projects/1/sections/assumptions/rows"
	if code, _ := doJSON(t, http.MethodPost, url, `{"sl_no":2,"brief_description":"x"}`, nil); code != http.StatusForbidden {
		t.Fatalf("missing token: %d", code)
	}
	if code, body := doJSON(t, http.MethodPost, url, `{"sl_no":2,"brief_description":"x"}`, map[string]string{"X-CSRFToken": "tok"}); code != http.StatusOK {
		t.Fatalf("with token: %d %v", code, body)
	}
}

func TestValidateField(t *testing.T) {
	cases := []struct {
		f    catalog.Field
		v    string
		want string
	}{
		{catalog.Field{Type: "DateField"}, "2024-02-30", "Enter a valid date."},
		{catalog.Field{Type: "DateField"}, "2024-02-28", ""},
		{catalog.Field{Type: "PositiveIntegerField"}, "-1", "Ensure this value is greater than or equal to 0."},
		{catalog.Field{Type: "PositiveIntegerField"}, "x", "Enter a whole number."},
		{catalog.Field{Type: "CharField", MaxLength: 3}, "abcd", "Ensure this value has at most 3 characters (it has 4)."},
		{catalog.Field{Type: "CharField", Required: true}, "", msgRequired},
		{catalog.Field{Type: "CharField"}, "", ""},
	}
	for _, tc := range cases {
		if got := validateField(tc.f, tc.v); got != tc.want {
			t.Errorf("validateField(%s, %q) = %q, want %q", tc.f.Type, tc.v, got, tc.want)
		}
	}
}

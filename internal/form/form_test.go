package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"plansheet-cli/internal/model"
)

func TestInfer(t *testing.T) {
	tests := []struct {
		typ, name string
		want      Kind
	}{
		{"date", "start", KindDate},
		{"DateTime", "remarks", KindDate},
		{"text", "Remarks", KindTextArea},
		{"text", "risk_analysis", KindTextArea},
		{"text", "project_plan_ref", KindTextArea},
		{"text", "measureOfSuccess", KindTextArea},
		{"text", "owner_email", KindEmail},
		{"email", "contact", KindText},
		{"text", "title", KindText},
		{"", "", KindText},
	}
	for _, tc := range tests {
		if got := Infer(tc.typ, tc.name); got != tc.want {
			t.Errorf("Infer(%q, %q) = %v, want %v", tc.typ, tc.name, got, tc.want)
		}
	}
}

func TestKindStrategyTable(t *testing.T) {
	for k := Kind(0); k < kindCount; k++ {
		s := k.Strategy()
		if s.Name == "" {
			t.Fatalf("kind %d has no strategy", k)
		}
		back, ok := ParseKind(s.Name)
		if !ok || back != k {
			t.Fatalf("ParseKind(%q) = %v, %v", s.Name, back, ok)
		}
	}
	if !KindTextArea.Strategy().Multiline || KindText.Strategy().Multiline {
		t.Fatalf("only text areas are multi-line")
	}
	if Kind(99).Strategy().Name != "text" {
		t.Fatalf("unknown kinds fall back to text")
	}
}

func TestBuildAndValues(t *testing.T) {
	specs := []model.FieldSpec{
		{Name: "title", Label: "Title", Type: "text"},
		{Name: "due", Label: "Due", Type: "date"},
		{Name: "count", Type: "number"},
		{Name: "notes_content", Label: "Notes", Type: "text"},
	}
	rec := model.RowRecord{
		"id":    model.Int(7),
		"title": model.String("Kickoff"),
		"due":   model.Null(),
		"count": model.Number("3"),
	}
	f := Build(specs, rec)

	if len(f.Fields) != 4 {
		t.Fatalf("fields = %d, want 4", len(f.Fields))
	}
	if f.Fields[2].Label != "count" {
		t.Fatalf("label should fall back to name, got %q", f.Fields[2].Label)
	}
	if f.Fields[1].Kind != KindDate || f.Fields[3].Kind != KindTextArea {
		t.Fatalf("unexpected kinds: %v %v", f.Fields[1].Kind, f.Fields[3].Kind)
	}

	want := map[string]string{"title": "Kickoff", "due": "", "count": "3", "notes_content": ""}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	if !f.Set("due", "2024-05-01") || f.Set("missing", "x") {
		t.Fatalf("Set should accept known fields only")
	}
	if f.Values()["due"] != "2024-05-01" {
		t.Fatalf("Set did not update value")
	}
}

func TestBuild_KeepsStoredTextVerbatim(t *testing.T) {
	specs := []model.FieldSpec{
		{Name: "title", Label: "Title", Type: "text"},
		{Name: "remarks", Label: "Remarks", Type: "text"},
	}
	rec := model.RowRecord{
		"title":   model.String("Use <config> when a<b && b>c"),
		"remarks": model.String("Ship <b>v2</b> & &amp; notes"),
	}
	want := map[string]string{
		"title":   "Use <config> when a<b && b>c",
		"remarks": "Ship <b>v2</b> & &amp; notes",
	}
	if diff := cmp.Diff(want, Build(specs, rec).Values()); diff != "" {
		t.Fatalf("unedited form values (-want +got):\n%s", diff)
	}
}

func TestBuild_NilRecordIsEmpty(t *testing.T) {
	f := Build([]model.FieldSpec{{Name: "title"}}, nil)
	if f.Values()["title"] != "" {
		t.Fatalf("expected empty value")
	}
}

func TestMapErrors(t *testing.T) {
	payload := map[string][]string{
		"title":            {"This field is required.", " This field is required. "},
		"__all__":          {"Row is locked."},
		"non_field_errors": {"<b>Try</b> again."},
		"ghost":            {"Unknown column."},
		"due":              {"  "},
	}
	m := MapErrors([]string{"title", "due"}, payload)

	wantFields := map[string][]string{"title": {"This field is required."}}
	if diff := cmp.Diff(wantFields, m.Fields); diff != "" {
		t.Fatalf("field errors (-want +got):\n%s", diff)
	}
	wantForm := []string{"Row is locked.", "Unknown column.", "Try again."}
	if diff := cmp.Diff(wantForm, m.Form); diff != "" {
		t.Fatalf("form errors (-want +got):\n%s", diff)
	}
}

func TestSetErrors_KeepsValues(t *testing.T) {
	f := Build([]model.FieldSpec{{Name: "title"}, {Name: "owner_email"}}, nil)
	f.Set("title", "draft")
	f.SetErrors(ErrorMapping{Fields: map[string][]string{"owner_email": {"Enter a valid email address."}}, Form: []string{"Nope"}})

	if !f.HasErrors() || f.Values()["title"] != "draft" {
		t.Fatalf("errors should be set without touching values")
	}
	fld, _ := f.Field("owner_email")
	if len(fld.Errors) != 1 {
		t.Fatalf("expected field error, got %v", fld.Errors)
	}
	f.ClearErrors()
	if f.HasErrors() {
		t.Fatalf("ClearErrors left errors behind")
	}
}

package catalog

import "testing"

func TestBuiltin(t *testing.T) {
	c := Builtin()
	if len(c.Sections()) == 0 {
		t.Fatalf("expected built-in sections")
	}
	po, ok := c.Lookup("product-overview")
	if !ok || !po.Singleton {
		t.Fatalf("product-overview should be a singleton")
	}
	d, ok := c.Lookup("deliverables")
	if !ok || len(d.DefaultRows) == 0 {
		t.Fatalf("deliverables should carry template rows")
	}
	if d.DefaultRows[0]["work_product"] != "Statement of Work" {
		t.Fatalf("unexpected first template row: %v", d.DefaultRows[0])
	}
	if _, ok := c.Lookup("nope"); ok {
		t.Fatalf("unknown key should not resolve")
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing key": "sections:\n  - title: X\n    fields: [{name: a}]\n",
		"duplicate":   "sections:\n  - key: a\n    fields: [{name: x}]\n  - key: a\n    fields: [{name: x}]\n",
		"no fields":   "sections:\n  - key: a\n",
		"id field":    "sections:\n  - key: a\n    fields: [{name: id}]\n",
	}
	for name, doc := range tests {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParse_TitleDefaultsToKey(t *testing.T) {
	c, err := Parse([]byte("sections:\n  - key: risks\n    fields: [{name: title}]\n"))
	if err != nil {
		t.Fatal(err)
	}
	s, _ := c.Lookup("risks")
	if s.Title != "risks" || s.FieldSpecs()[0].Name != "title" {
		t.Fatalf("unexpected section: %+v", s)
	}
}

// Package form synthesizes an editable form from section field metadata and
// reads the entered values back out.
package form

import (
	"plansheet-cli/internal/model"
)

// Field is one labeled input.
type Field struct {
	Name   string
	Label  string
	Kind   Kind
	Value  string
	Errors []string
}

// Form is the editable representation of one record. It holds text only;
// interpretation of the values is left to the server.
type Form struct {
	Fields []Field
	Errors []string
}

// Build emits one input per field spec, in order, pre-populated from record.
// A nil record or an absent/null value yields an empty input.
func Build(specs []model.FieldSpec, record model.RowRecord) *Form {
	f := &Form{Fields: make([]Field, 0, len(specs))}
	for _, s := range specs {
		label := s.Label
		if label == "" {
			label = s.Name
		}
		f.Fields = append(f.Fields, Field{
			Name:  s.Name,
			Label: label,
			Kind:  Infer(s.Type, s.Name),
			Value: record.Get(s.Name).Text(),
		})
	}
	return f
}

// Values returns the current input value of every field.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.Fields))
	for _, fld := range f.Fields {
		out[fld.Name] = fld.Value
	}
	return out
}

func (f *Form) Names() []string {
	out := make([]string, 0, len(f.Fields))
	for _, fld := range f.Fields {
		out = append(out, fld.Name)
	}
	return out
}

func (f *Form) Field(name string) (*Field, bool) {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i], true
		}
	}
	return nil, false
}

// Set updates a field value. Unknown names are reported, not added.
func (f *Form) Set(name, value string) bool {
	fld, ok := f.Field(name)
	if !ok {
		return false
	}
	fld.Value = value
	return true
}

// SetErrors replaces all error messages with the mapped payload. Values are
// left untouched so the user can correct them.
func (f *Form) SetErrors(m ErrorMapping) {
	f.ClearErrors()
	for i := range f.Fields {
		f.Fields[i].Errors = append([]string(nil), m.Fields[f.Fields[i].Name]...)
	}
	f.Errors = append([]string(nil), m.Form...)
}

func (f *Form) ClearErrors() {
	f.Errors = nil
	for i := range f.Fields {
		f.Fields[i].Errors = nil
	}
}

func (f *Form) HasErrors() bool {
	if len(f.Errors) > 0 {
		return true
	}
	for _, fld := range f.Fields {
		if len(fld.Errors) > 0 {
			return true
		}
	}
	return false
}

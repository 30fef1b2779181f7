package form

import "strings"

// Kind is the input strategy chosen for a field.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindTextArea
	KindEmail
	kindCount
)

// Strategy describes how an input of a given kind is presented and edited.
type Strategy struct {
	Name        string
	Multiline   bool
	Placeholder string
	// CharLimit of 0 means unlimited.
	CharLimit int
}

var strategies = [kindCount]Strategy{
	KindText:     {Name: "text", CharLimit: 500},
	KindDate:     {Name: "date", Placeholder: "YYYY-MM-DD", CharLimit: 10},
	KindTextArea: {Name: "textarea", Multiline: true},
	KindEmail:    {Name: "email", Placeholder: "name@example.com", CharLimit: 254},
}

func (k Kind) Strategy() Strategy {
	if k < 0 || k >= kindCount {
		return strategies[KindText]
	}
	return strategies[k]
}

func (k Kind) String() string { return k.Strategy().Name }

// ParseKind maps a strategy name back to its kind.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k := Kind(0); k < kindCount; k++ {
		if strategies[k].Name == name {
			return k, true
		}
	}
	return KindText, false
}

// longTextHints are name fragments that mark a field as free-form prose.
var longTextHints = []string{
	"remarks",
	"description",
	"content",
	"objective",
	"measure",
	"plan",
	"analysis",
}

// Infer picks the input kind for a field from its metadata alone. Rules are
// checked in order: a type mentioning "date", a long-text name hint, a name
// mentioning "email", then plain text.
func Infer(typ, name string) Kind {
	if strings.Contains(strings.ToLower(typ), "date") {
		return KindDate
	}
	lower := strings.ToLower(name)
	for _, hint := range longTextHints {
		if strings.Contains(lower, hint) {
			return KindTextArea
		}
	}
	if strings.Contains(lower, "email") {
		return KindEmail
	}
	return KindText
}

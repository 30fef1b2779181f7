package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"plansheet-cli/internal/form"
	"plansheet-cli/internal/sections"
)

type missingSettingError struct {
	name string
	hint string
}

func (e missingSettingError) Error() string {
	return fmt.Sprintf("missing %s: set it with %s", e.name, e.hint)
}

func errMissingSetting(name, hint string) error {
	return missingSettingError{name: name, hint: hint}
}

type badAssignmentError struct {
	arg string
}

func (e badAssignmentError) Error() string {
	return fmt.Sprintf("invalid --set %q: want field=value", e.arg)
}

type unknownFieldError struct {
	section string
	field   string
}

func (e unknownFieldError) Error() string {
	return fmt.Sprintf("section %s has no field %q", e.section, e.field)
}

// saveErrorPayload is the structured form of a rejected save.
func saveErrorPayload(err error) (map[string]any, bool) {
	var merr *sections.MutationError
	if !errors.As(err, &merr) {
		return nil, false
	}
	out := map[string]any{
		"kind":    merr.Kind.String(),
		"message": merr.Message,
	}
	if !merr.Mapping.Empty() {
		out["errors"] = mappingJSON(merr.Mapping)
	}
	return map[string]any{"error": out}, true
}

func mappingJSON(m form.ErrorMapping) map[string][]string {
	out := make(map[string][]string, len(m.Fields)+1)
	for k, v := range m.Fields {
		out[k] = v
	}
	if len(m.Form) > 0 {
		out["__all__"] = m.Form
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

package form

import (
	"slices"
	"strings"

	"plansheet-cli/internal/model"
)

// Server keys that carry messages for the whole form rather than a field.
var formLevelKeys = []string{"__all__", "non_field_errors", "detail", "error"}

// ErrorMapping splits a server error payload into field-level and form-level
// messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

func (m ErrorMapping) Empty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

// MapErrors assigns each payload entry to a known field name, or to the form
// when the key is form-level or names no field so messages are not lost.
// Messages are trimmed, stripped of markup and deduplicated in order.
func MapErrors(fieldNames []string, payload map[string][]string) ErrorMapping {
	m := ErrorMapping{Fields: map[string][]string{}}
	// Deterministic order for form-level messages.
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, raw := range keys {
		msgs := normalizeMessages(payload[raw])
		if len(msgs) == 0 {
			continue
		}
		key := strings.TrimSpace(raw)
		if isFormLevelKey(key) || !slices.Contains(fieldNames, key) {
			m.Form = append(m.Form, msgs...)
			continue
		}
		m.Fields[key] = append(m.Fields[key], msgs...)
	}
	if len(m.Fields) == 0 {
		m.Fields = nil
	}
	m.Form = normalizeMessages(m.Form)
	return m
}

func isFormLevelKey(key string) bool {
	return key == "" || slices.Contains(formLevelKeys, strings.ToLower(key))
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		trimmed := strings.TrimSpace(model.StripMarkup(msg))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

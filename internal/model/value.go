package model

import (
	"bytes"
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Value is a scalar cell value as delivered by the section API:
// a string, a number, a boolean or null.
type Value struct {
	raw any
}

var strictPolicy = bluemonday.StrictPolicy()

func Null() Value                { return Value{} }
func String(s string) Value      { return Value{raw: s} }
func Number(n json.Number) Value { return Value{raw: n} }
func Bool(b bool) Value          { return Value{raw: b} }

func Int(n int64) Value {
	return Value{raw: json.Number(strconv.FormatInt(n, 10))}
}

func (v Value) IsNull() bool { return v.raw == nil }

// Raw returns the underlying Go value (nil, string, json.Number or bool).
func (v Value) Raw() any { return v.raw }

// Text is the value as text, exactly as stored: null is empty. It feeds
// forms, so it must round-trip unchanged.
func (v Value) Text() string {
	switch t := v.raw.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Display renders the value for a table cell; empty values show as an em dash.
func (v Value) Display() string {
	s := v.Text()
	if s == "" {
		return "—"
	}
	return s
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	switch t := x.(type) {
	case nil, string, json.Number, bool:
		v.raw = t
	default:
		// Nested structures are not part of the contract; keep their JSON text.
		v.raw = string(bytes.TrimSpace(b))
	}
	return nil
}

// StripMarkup removes HTML markup from server-provided messages. It is lossy
// and never applies to row values.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is a non-2xx response without a structured error payload.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ValidationError carries server-reported errors keyed by field name.
// Form-level messages use the "__all__" key.
type ValidationError struct {
	Status int
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	n := 0
	for _, msgs := range e.Fields {
		n += len(msgs)
	}
	return fmt.Sprintf("validation failed (%d): %d message(s)", e.Status, n)
}

// IsStatus reports whether err is a response error with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == status
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Status == status
	}
	return false
}

const maxErrorBody = 200

type errorPayload struct {
	Errors map[string]json.RawMessage `json:"errors"`
	Error  string                     `json:"error"`
}

func responseError(method, path string, status int, body []byte) error {
	var p errorPayload
	if status >= 400 && status < 500 && json.Unmarshal(body, &p) == nil && len(p.Errors) > 0 {
		fields := make(map[string][]string, len(p.Errors))
		for k, raw := range p.Errors {
			if msgs := decodeMessages(raw); len(msgs) > 0 {
				fields[k] = msgs
			}
		}
		if len(fields) > 0 {
			return &ValidationError{Status: status, Fields: fields}
		}
	}
	text := strings.TrimSpace(p.Error)
	if text == "" {
		text = strings.TrimSpace(string(body))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody] + "…"
		}
	}
	return &StatusError{Method: method, Path: path, Status: status, Body: text}
}

// decodeMessages accepts "msg", ["msg", ...] or [{"message": "msg"}, ...].
func decodeMessages(raw json.RawMessage) []string {
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return []string{one}
	}
	var many []json.RawMessage
	if json.Unmarshal(raw, &many) != nil {
		return nil
	}
	out := make([]string, 0, len(many))
	for _, item := range many {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(item, &obj) == nil && obj.Message != "" {
			out = append(out, obj.Message)
		}
	}
	return out
}

package web

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"plansheet-cli/internal/catalog"
)

const msgRequired = "This field is required."

// cleanRow keeps the catalog fields of values, trimmed, and reports
// validation messages per field.
func cleanRow(sec catalog.Section, values map[string]string) (map[string]string, map[string][]string) {
	clean := make(map[string]string, len(sec.Fields))
	errs := map[string][]string{}
	for _, f := range sec.Fields {
		v := strings.TrimSpace(values[f.Name])
		clean[f.Name] = v
		if msg := validateField(f, v); msg != "" {
			errs[f.Name] = append(errs[f.Name], msg)
		}
	}
	if len(errs) == 0 {
		errs = nil
	}
	return clean, errs
}

func validateField(f catalog.Field, v string) string {
	if v == "" {
		if f.Required {
			return msgRequired
		}
		return ""
	}
	if f.MaxLength > 0 {
		if n := utf8.RuneCountInString(v); n > f.MaxLength {
			return fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", f.MaxLength, n)
		}
	}
	typ := strings.ToLower(f.Type)
	switch {
	case strings.Contains(typ, "date"):
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return "Enter a valid date."
		}
	case strings.Contains(typ, "email"):
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v {
			return "Enter a valid email address."
		}
	case strings.Contains(typ, "integer"):
		n, err := strconv.Atoi(v)
		if err != nil {
			return "Enter a whole number."
		}
		if strings.Contains(typ, "positive") && n < 0 {
			return "Ensure this value is greater than or equal to 0."
		}
	}
	return ""
}

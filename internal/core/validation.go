package core

// validation.go collects field-level failures from form conversion.
//
// Conversion checks every editable field and reports all problems at once so
// the form can re-render with each field's message beside it.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // FieldSpec.Name
	Label   string // FieldSpec.Label
	Value   string // The rejected input
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: %s", e.Label, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is every failure found while converting one form.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// ByField indexes the messages by field name, first message per field.
func (v ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

package core

// convert.go turns submitted form values into the JSON body the backend
// expects.
//
// Form input is messy: money pasted with currency symbols and thousands
// separators, checkboxes that are simply absent when unticked, enum values in
// the wrong case. Each editable field is cleaned and checked against its
// FieldSpec. Numbers are sent as json.Number so the exact entered digits reach
// the backend.

import (
	"encoding/json"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salvationministries/console/internal/table"
)

// DateLayout is the only date format accepted from forms.
const DateLayout = "2006-01-02"

// numericRegex validates a plain decimal after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// currencySymbols are stripped from money input.
var currencySymbols = []string{"$", "₦", "€", "£", "NGN", "USD"}

// ConvertForm validates values against the resource's editable fields and
// returns the request body. Every failure is reported in the returned
// ValidationErrors.
func ConvertForm(def ResourceDefinition, values url.Values) (map[string]any, error) {
	body := make(map[string]any)
	var errs ValidationErrors

	for _, f := range def.FormFields() {
		raw := strings.TrimSpace(values.Get(f.Name))

		if f.Type == FieldBool {
			b, ok := ParseBool(raw)
			if !ok {
				errs = append(errs, fieldError(f, raw, "must be yes or no"))
				continue
			}
			body[f.Name] = b
			continue
		}

		if raw == "" {
			if f.Required {
				errs = append(errs, fieldError(f, raw, "is required"))
				continue
			}
			if f.Type == FieldText || f.Type == FieldLongText {
				body[f.Name] = ""
			}
			continue
		}

		v, msg := convertValue(f, raw)
		if msg != "" {
			errs = append(errs, fieldError(f, raw, msg))
			continue
		}
		body[f.Name] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return body, nil
}

// convertValue converts one non-empty input. A non-empty message reports
// the failure.
func convertValue(f FieldSpec, raw string) (any, string) {
	switch f.Type {
	case FieldNumber:
		s := strings.ReplaceAll(raw, ",", "")
		if !numericRegex.MatchString(s) {
			return nil, "invalid number"
		}
		return json.Number(s), ""

	case FieldMoney:
		d, ok := ParseMoney(raw)
		if !ok {
			return nil, "invalid number"
		}
		return json.Number(d.String()), ""

	case FieldDate:
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, "invalid date, use YYYY-MM-DD"
		}
		return t.Format(DateLayout), ""

	case FieldEnum:
		i := slices.IndexFunc(f.EnumValues, func(v string) bool { return strings.EqualFold(v, raw) })
		if i < 0 {
			return nil, "invalid choice"
		}
		return f.EnumValues[i], ""

	case FieldURL:
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, "invalid URL, use http:// or https://"
		}
		return raw, ""

	default:
		return raw, ""
	}
}

// ParseMoney parses an amount, tolerating currency symbols, thousands
// separators and accounting-style parentheses for negatives.
func ParseMoney(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseBool accepts checkbox and yes/no spellings. An empty value is an
// unticked checkbox.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "y", "true", "1":
		return true, true
	case "", "off", "no", "n", "false", "0":
		return false, true
	default:
		return false, false
	}
}

func fieldError(f FieldSpec, raw, msg string) ValidationError {
	return ValidationError{Field: f.Name, Label: f.Label, Value: raw, Message: msg}
}

// FormValues renders a record back into form values for the edit screen.
func FormValues(def ResourceDefinition, rec map[string]any) url.Values {
	values := make(url.Values)
	for _, f := range def.FormFields() {
		v, ok := table.RecordField(rec, f.Name)
		if !ok || v == nil {
			continue
		}
		switch f.Type {
		case FieldBool:
			if b, ok := v.(bool); ok && b {
				values.Set(f.Name, "on")
			}
		case FieldDate:
			values.Set(f.Name, dateOnly(v))
		default:
			values.Set(f.Name, table.Text(v))
		}
	}
	return values
}

// dateOnly trims an ISO timestamp to its date part.
func dateOnly(v any) string {
	s := table.Text(v)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(DateLayout)
	}
	if len(s) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return s[:len(DateLayout)]
		}
	}
	return s
}

package templates

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/table"
)

// longTextPreview is how many characters of long text a list cell shows.
const longTextPreview = 80

// CellText renders one record value for a list cell or detail line.
func CellText(f core.FieldSpec, v any) string {
	if v == nil {
		return ""
	}
	switch f.Type {
	case core.FieldMoney:
		return FormatMoney(table.Text(v))
	case core.FieldBool:
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
		return table.Text(v)
	case core.FieldDate:
		return formatDate(table.Text(v))
	case core.FieldLongText:
		return truncate(table.Text(v), longTextPreview)
	default:
		return table.Text(v)
	}
}

// FormatMoney renders an amount with two decimals and thousands separators.
// Input that is not a number is returned unchanged.
func FormatMoney(s string) string {
	d, ok := core.ParseMoney(s)
	if !ok {
		return s
	}
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func formatDate(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2 Jan 2006")
	}
	if len(s) >= len(core.DateLayout) {
		if t, err := time.Parse(core.DateLayout, s[:len(core.DateLayout)]); err == nil {
			return t.Format("2 Jan 2006")
		}
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

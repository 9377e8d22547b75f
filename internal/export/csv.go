// Package export serializes list screen results to CSV downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salvationministries/console/internal/table"
)

// ContentType is the MIME type of every export.
const ContentType = "text/csv"

// Column maps a record field to a CSV header.
type Column struct {
	Key    string
	Header string
}

// Write emits a header row followed by one row per record. encoding/csv
// quotes any value containing a comma, quote or line break. An empty record
// set produces the header row alone.
func Write[T any](w io.Writer, columns []Column, records []T, get table.Accessor[T]) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		if header[i] == "" {
			header[i] = col.Key
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(columns))
	for n, rec := range records {
		for i, col := range columns {
			v, ok := get(rec, col.Key)
			if !ok {
				row[i] = ""
				continue
			}
			row[i] = FormatCell(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatCell renders a field value for a CSV cell.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case decimal.Decimal:
		return val.StringFixed(2)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format("2006-01-02")
	case map[string]any, table.Record, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return table.Text(val)
	}
}

// Filename returns "<subject>_<YYYY-MM-DD>.csv", or "<subject>.csv" when
// date is zero. The subject is reduced to a filesystem-safe slug.
func Filename(subject string, date time.Time) string {
	slug := slugify(subject)
	if slug == "" {
		slug = "export"
	}
	if date.IsZero() {
		return slug + ".csv"
	}
	return slug + "_" + date.Format("2006-01-02") + ".csv"
}

// SetHeaders prepares w for a CSV attachment download.
func SetHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '_' || r == '-':
			b.WriteRune(r)
			lastDash = r == '-'
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salvationministries/console/internal/table"
)

// DefaultCurrency applies to finance records without a currency field.
const DefaultCurrency = "NGN"

// CurrencyTotal is the sum of one currency's amounts.
type CurrencyTotal struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// FinanceSummary totals the money field of a filtered finance view.
type FinanceSummary struct {
	Resource string          `json:"resource"`
	Field    string          `json:"field"`
	Records  int             `json:"records"`
	Skipped  int             `json:"skipped"` // amounts that could not be parsed
	Totals   []CurrencyTotal `json:"totals"`
}

// FinanceSummary totals the money field over every record matching st, not
// just the visible page. Amounts are summed as decimals.
func (s *Service) FinanceSummary(ctx context.Context, key string, st table.State) (FinanceSummary, error) {
	rv, err := s.View(ctx, key, st)
	if err != nil {
		return FinanceSummary{}, err
	}
	money, ok := moneyField(rv.Def)
	if !ok {
		return FinanceSummary{}, fmt.Errorf("summary %s: %w", key, ErrNotSupported)
	}
	return summarize(key, money, rv.View.Filtered), nil
}

func moneyField(def ResourceDefinition) (string, bool) {
	for _, f := range def.Fields {
		if f.Type == FieldMoney {
			return f.Name, true
		}
	}
	return "", false
}

func summarize(resource, field string, records []table.Record) FinanceSummary {
	sum := FinanceSummary{Resource: resource, Field: field, Records: len(records)}
	byCurrency := make(map[string]*CurrencyTotal)

	for _, rec := range records {
		v, ok := table.RecordField(rec, field)
		if !ok {
			sum.Skipped++
			continue
		}
		amount, ok := toDecimal(v)
		if !ok {
			sum.Skipped++
			continue
		}

		currency := DefaultCurrency
		if c, ok := table.RecordField(rec, "currency"); ok {
			if t := strings.ToUpper(strings.TrimSpace(table.Text(c))); t != "" {
				currency = t
			}
		}

		ct, ok := byCurrency[currency]
		if !ok {
			ct = &CurrencyTotal{Currency: currency, Total: decimal.Zero}
			byCurrency[currency] = ct
		}
		ct.Total = ct.Total.Add(amount)
		ct.Count++
	}

	sum.Totals = make([]CurrencyTotal, 0, len(byCurrency))
	for _, ct := range byCurrency {
		sum.Totals = append(sum.Totals, *ct)
	}
	sort.Slice(sum.Totals, func(i, j int) bool {
		return sum.Totals[i].Currency < sum.Totals[j].Currency
	})
	return sum
}

// toDecimal reads an amount decoded from JSON or entered as text.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		return ParseMoney(n)
	default:
		return decimal.Zero, false
	}
}

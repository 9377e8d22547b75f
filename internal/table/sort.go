package table

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "desc" (any case); everything else is ascending.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Toggle flips the direction.
func (o Order) Toggle() Order {
	if o == Desc {
		return Asc
	}
	return Desc
}

// sortItem caches the comparable forms of one record's sort value.
type sortItem[T any] struct {
	rec   T
	num   float64
	isNum bool
	text  string
}

// SortRecords returns a new slice ordered by key. Numbers compare
// numerically and sort before all other values, which compare as
// locale-aware text with missing values treated as the empty string. The sort is stable in both directions:
// descending reverses the comparison, not the order of ties.
func SortRecords[T any](records []T, key string, order Order, get Accessor[T]) []T {
	if key == "" || len(records) < 2 {
		return slices.Clone(records)
	}

	items := make([]sortItem[T], len(records))
	for i, rec := range records {
		item := sortItem[T]{rec: rec}
		if v, ok := get(rec, key); ok {
			item.num, item.isNum = number(v)
			item.text = Text(v)
		}
		items[i] = item
	}

	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(language.English)
	sign := 1
	if order == Desc {
		sign = -1
	}

	slices.SortStableFunc(items, func(a, b sortItem[T]) int {
		switch {
		case a.isNum && b.isNum:
			return sign * cmp.Compare(a.num, b.num)
		case a.isNum != b.isNum:
			// Numbers rank ahead of text so mixed columns still order totally.
			if a.isNum {
				return -sign
			}
			return sign
		}
		return sign * col.CompareString(a.text, b.text)
	})

	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.rec
	}
	return out
}

package table

import "strings"

// All is the categorical filter value that accepts every record.
const All = "all"

// Filters are the user-selected search term and categorical selections.
// Categorical maps a field name to its accepted value.
type Filters struct {
	Search      string
	Categorical map[string]string
}

// Active reports whether any predicate would be configured.
func (f Filters) Active() bool {
	if strings.TrimSpace(f.Search) != "" {
		return true
	}
	for _, v := range f.Categorical {
		if isSelective(v) {
			return true
		}
	}
	return false
}

// Predicate decides whether a record stays in the filtered view.
type Predicate[T any] func(rec T) bool

// SearchPredicate matches records where any of fields contains term,
// case-insensitively. An empty term matches everything.
func SearchPredicate[T any](term string, fields []string, get Accessor[T]) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	return func(rec T) bool {
		for _, field := range fields {
			v, ok := get(rec, field)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(Text(v)), needle) {
				return true
			}
		}
		return false
	}
}

// EqualsPredicate matches records whose field equals value, ignoring case.
// The empty value and All match everything.
func EqualsPredicate[T any](field, value string, get Accessor[T]) Predicate[T] {
	if !isSelective(value) {
		return nil
	}
	want := strings.TrimSpace(value)
	return func(rec T) bool {
		v, ok := get(rec, field)
		if !ok {
			return false
		}
		return strings.EqualFold(Text(v), want)
	}
}

// ApplyFilters returns the records satisfying every configured predicate,
// in their original relative order. The input is never modified.
func ApplyFilters[T any](records []T, f Filters, searchFields []string, get Accessor[T], extra ...Predicate[T]) []T {
	var preds []Predicate[T]
	if p := SearchPredicate(f.Search, searchFields, get); p != nil {
		preds = append(preds, p)
	}
	for field, value := range f.Categorical {
		if p := EqualsPredicate(field, value, get); p != nil {
			preds = append(preds, p)
		}
	}
	for _, p := range extra {
		if p != nil {
			preds = append(preds, p)
		}
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec, preds) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesAll[T any](rec T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if !p(rec) {
			return false
		}
	}
	return true
}

func isSelective(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && !strings.EqualFold(v, All)
}

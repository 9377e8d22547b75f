package table

import "slices"

// Schema describes how a screen's records are searched and sorted.
type Schema[T any] struct {
	Get          Accessor[T]
	SearchFields []string
	SortFields   []string

	// Predicates are extra screen-specific filters ANDed with the state's.
	Predicates []Predicate[T]
}

// View is the derived output for one render.
type View[T any] struct {
	Page[T]

	// Filtered is the complete filtered and sorted sequence the page was cut
	// from. The CSV exporter serializes this, not the raw collection.
	Filtered []T

	State State
}

// Compute runs filter, then sort, then paginate. Sort keys that are not in
// schema.SortFields leave the filtered order untouched.
func Compute[T any](records []T, st State, schema Schema[T]) View[T] {
	filtered := ApplyFilters(records, st.FilterSet(), schema.SearchFields, schema.Get, schema.Predicates...)

	sorted := filtered
	if st.SortKey != "" && slices.Contains(schema.SortFields, st.SortKey) {
		sorted = SortRecords(filtered, st.SortKey, st.SortOrder, schema.Get)
	}

	page := Paginate(sorted, st.Page, st.PageSize)
	st.Page = page.Page
	st.PageSize = page.PageSize

	return View[T]{
		Page:     page,
		Filtered: sorted,
		State:    st,
	}
}

// Sortable reports whether key may be used as a sort key for the schema.
func (s Schema[T]) Sortable(key string) bool {
	return slices.Contains(s.SortFields, key)
}

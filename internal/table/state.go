package table

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// State is the transient view state of one list screen. Every transition
// returns a new State; the receiver is never modified.
type State struct {
	Search    string
	Filters   map[string]string
	SortKey   string
	SortOrder Order
	Page      int
	PageSize  int
}

// NewState returns the state of a freshly opened screen.
func NewState(pageSize int) State {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return State{SortOrder: Asc, Page: 1, PageSize: pageSize}
}

// FilterSet returns the filter portion of the state.
func (s State) FilterSet() Filters {
	return Filters{Search: s.Search, Categorical: s.Filters}
}

// Filter returns the selected value for field, or All.
func (s State) Filter(field string) string {
	if v, ok := s.Filters[field]; ok && isSelective(v) {
		return v
	}
	return All
}

// WithSearch sets the search term and returns to the first page.
func (s State) WithSearch(term string) State {
	s.Filters = maps.Clone(s.Filters)
	s.Search = term
	s.Page = 1
	return s
}

// WithFilter sets one categorical filter and returns to the first page.
// The empty value and All remove the filter.
func (s State) WithFilter(field, value string) State {
	filters := make(map[string]string, len(s.Filters)+1)
	maps.Copy(filters, s.Filters)
	if isSelective(value) {
		filters[field] = strings.TrimSpace(value)
	} else {
		delete(filters, field)
	}
	s.Filters = filters
	s.Page = 1
	return s
}

// ClearFilters drops the search term and every categorical filter.
func (s State) ClearFilters() State {
	s.Search = ""
	s.Filters = nil
	s.Page = 1
	return s
}

// ToggleSort flips the order when key is already active, otherwise makes key
// the active sort in ascending order.
func (s State) ToggleSort(key string) State {
	s.Filters = maps.Clone(s.Filters)
	if s.SortKey == key {
		s.SortOrder = s.SortOrder.Toggle()
		return s
	}
	s.SortKey = key
	s.SortOrder = Asc
	return s
}

// WithPage moves to page p (values below 1 mean page 1).
func (s State) WithPage(p int) State {
	s.Filters = maps.Clone(s.Filters)
	s.Page = max(p, 1)
	return s
}

// WithPageSize switches to size when it is one of allowed, returning to the
// first page. Disallowed sizes leave the state unchanged.
func (s State) WithPageSize(size int, allowed []int) State {
	if !slices.Contains(allowed, size) {
		return s
	}
	s.Filters = maps.Clone(s.Filters)
	s.PageSize = size
	s.Page = 1
	return s
}

// Query parameter names used to carry State through URLs.
const (
	ParamSearch   = "q"
	ParamSort     = "sort"
	ParamDir      = "dir"
	ParamPage     = "page"
	ParamPageSize = "size"
	filterPrefix  = "filter["
)

// FilterParam returns the query parameter carrying field's filter.
func FilterParam(field string) string {
	return filterPrefix + field + "]"
}

// Defaults bound what ParseState accepts.
type Defaults struct {
	PageSize  int
	PageSizes []int
	SortKey   string
	SortOrder Order

	// Filterable lists the fields accepted as filter[...] parameters.
	// Nil accepts any field.
	Filterable []string
}

// ParseState reads a State from query parameters, ignoring anything invalid.
func ParseState(values url.Values, d Defaults) State {
	s := NewState(d.PageSize)
	s.SortKey = d.SortKey
	if d.SortOrder != "" {
		s.SortOrder = d.SortOrder
	}

	s.Search = strings.TrimSpace(values.Get(ParamSearch))

	for key, vals := range values {
		if !strings.HasPrefix(key, filterPrefix) || !strings.HasSuffix(key, "]") || len(vals) == 0 {
			continue
		}
		field := key[len(filterPrefix) : len(key)-1]
		if field == "" || (d.Filterable != nil && !slices.Contains(d.Filterable, field)) {
			continue
		}
		if isSelective(vals[0]) {
			if s.Filters == nil {
				s.Filters = make(map[string]string)
			}
			s.Filters[field] = strings.TrimSpace(vals[0])
		}
	}

	if key := strings.TrimSpace(values.Get(ParamSort)); key != "" {
		s.SortKey = key
		s.SortOrder = ParseOrder(values.Get(ParamDir))
	}

	if n, err := strconv.Atoi(values.Get(ParamPageSize)); err == nil && slices.Contains(d.PageSizes, n) {
		s.PageSize = n
	}
	if n, err := strconv.Atoi(values.Get(ParamPage)); err == nil && n > 0 {
		s.Page = n
	}

	return s
}

// Query encodes the state as query parameters understood by ParseState.
// Default values are omitted.
func (s State) Query() url.Values {
	v := url.Values{}
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	for _, field := range slices.Sorted(maps.Keys(s.Filters)) {
		if value := s.Filters[field]; isSelective(value) {
			v.Set(FilterParam(field), value)
		}
	}
	if s.SortKey != "" {
		v.Set(ParamSort, s.SortKey)
		v.Set(ParamDir, string(s.SortOrder))
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if s.PageSize > 0 {
		v.Set(ParamPageSize, strconv.Itoa(s.PageSize))
	}
	return v
}

// Encode is Query().Encode().
func (s State) Encode() string {
	return s.Query().Encode()
}

package table

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one window over an ordered collection.
// StartIndex and EndIndex are zero-based and half-open: Records equals
// collection[StartIndex:EndIndex].
type Page[T any] struct {
	Records    []T
	Page       int
	PageSize   int
	TotalPages int
	Total      int
	StartIndex int
	EndIndex   int
}

// Paginate selects page (1-based) of records. TotalPages is at least 1 even
// for an empty collection, and a page past the end is empty rather than an
// error.
func Paginate[T any](records []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start, end := total, total
	if page <= totalPages {
		start = (page - 1) * pageSize
		end = min(start+pageSize, total)
	}

	window := make([]T, end-start)
	copy(window, records[start:end])

	return Page[T]{
		Records:    window,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
		StartIndex: start,
		EndIndex:   end,
	}
}

// Empty reports whether the window holds no records.
func (p Page[T]) Empty() bool {
	return len(p.Records) == 0
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// FirstItem is the 1-based position of the first displayed record, 0 if none.
func (p Page[T]) FirstItem() int {
	if p.Empty() {
		return 0
	}
	return p.StartIndex + 1
}

// LastItem is the 1-based position of the last displayed record, 0 if none.
func (p Page[T]) LastItem() int {
	return p.EndIndex
}

// Window returns up to size page numbers centred on the current page, for
// rendering a pagination bar.
func (p Page[T]) Window(size int) []int {
	if size < 1 {
		size = 1
	}
	size = min(size, p.TotalPages)

	first := p.Page - size/2
	if first < 1 {
		first = 1
	}
	if last := first + size - 1; last > p.TotalPages {
		first = max(1, p.TotalPages-size+1)
	}

	pages := make([]int, size)
	for i := range pages {
		pages[i] = first + i
	}
	return pages
}

package listing

import "bookingcrm/internal/domain"

// DefaultPageSize matches the first option of the dashboard tables.
const DefaultPageSize = 10

// PageSizeOptions are the sizes offered by the list views.
var PageSizeOptions = []int{10, 20, 50, 100}

// Page tracks the visible window over the filtered result set.
// Total is the filtered count, never the size of the unfiltered dataset.
type Page struct {
	Current int `json:"page"`
	Size    int `json:"pageSize"`
	Total   int `json:"total"`
}

// NewPage returns page 1 with the given size (DefaultPageSize when < 1).
func NewPage(size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	return Page{Current: 1, Size: size}
}

// Recompute rebuilds the page after the filtered count changed. A current
// page beyond the last one is clamped; an empty result goes back to page 1.
func Recompute(filteredCount, currentPage, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if filteredCount < 0 {
		filteredCount = 0
	}
	p := Page{Current: currentPage, Size: pageSize, Total: filteredCount}
	if p.Current < 1 || filteredCount == 0 {
		p.Current = 1
		return p
	}
	if last := p.Pages(); p.Current > last {
		p.Current = last
	}
	return p
}

// Pages is ceil(Total/Size).
func (p Page) Pages() int {
	if p.Size < 1 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// SetPage moves to n when it is a valid page and reports whether it moved.
func (p *Page) SetPage(n int) bool {
	if n < 1 || n > p.Pages() || n == p.Current {
		return false
	}
	p.Current = n
	return true
}

// SetPageSize changes the size and rewinds to page 1.
func (p *Page) SetPageSize(n int) error {
	if n < 1 {
		return domain.ValidationError{Field: "page_size", Msg: "must be positive"}
	}
	p.Size = n
	p.Current = 1
	return nil
}

// Offset is the index of the first row on the current page.
func (p Page) Offset() int {
	if p.Current < 1 || p.Size < 1 {
		return 0
	}
	return (p.Current - 1) * p.Size
}

// Bounds returns the [lo, hi) slice bounds of the current page within n rows.
func (p Page) Bounds(n int) (int, int) {
	lo := p.Offset()
	if lo > n {
		lo = n
	}
	hi := lo + p.Size
	if hi > n {
		hi = n
	}
	return lo, hi
}

// Slice cuts the current page out of the filtered rows.
func (p Page) Slice(rows []Record) []Record {
	lo, hi := p.Bounds(len(rows))
	out := make([]Record, hi-lo)
	copy(out, rows[lo:hi])
	return out
}

// ValidPageSize reports whether n is one of PageSizeOptions.
func ValidPageSize(n int) bool {
	for _, s := range PageSizeOptions {
		if s == n {
			return true
		}
	}
	return false
}

package model

// Pagination defaults and limits.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	// MaxPage caps the page number so (page-1)*per_page stays a small,
	// non-negative OFFSET. Pages beyond it are simply empty.
	MaxPage = 1_000_000
)

// PageRequest is a normalized page-number pagination request.
type PageRequest struct {
	Page    int
	PerPage int
}

// NewPageRequest clamps page and perPage to valid values.
// Out-of-range values fall back to the defaults rather than erroring;
// a page past MaxPage is clamped to it.
func NewPageRequest(page, perPage int) PageRequest {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Offset returns the SQL OFFSET for this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the SQL LIMIT for this page.
func (p PageRequest) Limit() int {
	return p.PerPage
}

// Page is one page of results with totals.
type Page[T any] struct {
	Items   []T
	Total   int
	Page    int
	PerPage int
	Pages   int
}

// NewPage builds a Page, computing the page count as ceil(total / perPage).
func NewPage[T any](items []T, total int, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:   items,
		Total:   total,
		Page:    req.Page,
		PerPage: req.PerPage,
		Pages:   PageCount(total, req.PerPage),
	}
}

// PageCount returns ceil(total / perPage), or 0 when there is nothing to page.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

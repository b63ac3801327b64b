package service

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPageNumber   = 1 << 20
)

// Page describes a requested page, 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Number > maxPageNumber {
		p.Number = maxPageNumber
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Pagination is returned alongside listed items.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func newPagination(p Page, total int64) Pagination {
	pages := total / int64(p.Size)
	if total%int64(p.Size) != 0 {
		pages++
	}
	return Pagination{Page: p.Number, Limit: p.Size, Total: total, Pages: pages}
}

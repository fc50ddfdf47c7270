package model

// SortOrder is the direction of a list query.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort keys accepted by list endpoints.
const (
	SortByDateCreated = "date_created"
	SortByTotal       = "total"
	SortByName        = "name"
	SortByPrice       = "price"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// OrderQuery filters stored orders.
type OrderQuery struct {
	Page   int
	Limit  int
	Search string
	Status string
	Sort   string
	Order  SortOrder
}

// ProductQuery filters stored products.
type ProductQuery struct {
	Page   int
	Limit  int
	Search string
	Sort   string
	Order  SortOrder
}

// Pagination describes the page returned by a list query.
type Pagination struct {
	Page  int
	Limit int
	Total int64
	Pages int64
}

// NewPagination computes the number of pages for total items.
func NewPagination(page, limit int, total int64) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.Pages = (total + int64(limit) - 1) / int64(limit)
	}
	return p
}

// Offset converts page and limit to a row offset.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// NormalizePage applies defaults and bounds to paging parameters.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

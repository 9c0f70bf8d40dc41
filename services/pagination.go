package services

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Pagination is returned alongside every paged listing.
type Pagination struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
}

// normalizePage clamps page and limit into their allowed ranges.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func newPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		TotalPages: pages,
		TotalItems: total,
	}
}

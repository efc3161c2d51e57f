package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// maxPageSize caps the limit query param so list endpoints cannot be asked
// for unbounded result sets.
const maxPageSize = 100

// Pagination carries the page window for list queries.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination extracts page and limit from the query string. Out-of-range
// or unparseable values fall back to page 1 with 20 items; limit is capped
// at maxPageSize.
func ParsePagination(c *fiber.Ctx) Pagination {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

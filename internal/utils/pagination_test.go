package utils_test

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

func parseVia(t *testing.T, query string) utils.Pagination {
	t.Helper()

	var got utils.Pagination
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = utils.ParsePagination(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", fmt.Sprintf("/?%s", query), nil)
	_, err := app.Test(req, -1)
	require.NoError(t, err)
	return got
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		page   int
		limit  int
		offset int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "page=3&limit=10", 3, 10, 20},
		{"zero page clamps", "page=0&limit=10", 1, 10, 0},
		{"negative limit clamps", "page=2&limit=-5", 2, 20, 20},
		{"garbage falls back", "page=abc&limit=xyz", 1, 20, 0},
		{"oversized limit capped", "page=2&limit=500", 2, 100, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pg := parseVia(t, tc.query)
			assert.Equal(t, tc.page, pg.Page)
			assert.Equal(t, tc.limit, pg.Limit)
			assert.Equal(t, tc.offset, pg.Offset)
		})
	}
}

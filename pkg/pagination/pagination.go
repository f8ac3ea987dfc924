package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 1000

// Params holds an optional result window. A zero Limit means no limit.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit and offset query parameters. Missing or invalid
// values leave the window open.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Window returns the slice bounds for a result set of size total.
func (p Params) Window(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	end = total
	if p.Limit > 0 && start+p.Limit < total {
		end = start + p.Limit
	}
	return start, end
}

// HasNext returns true if there are more results after the current window.
func (p Params) HasNext(total int) bool {
	_, end := p.Window(total)
	return end < total
}

package request

import "net/http"

// ListParams holds pagination, search, and status filter parameters shared
// by the list endpoints.
type ListParams struct {
	Limit  int
	Cursor string
	Search string
	Status string
}

// ParseListParams extracts list parameters from the query string.
func ParseListParams(r *http.Request) ListParams {
	pg := ParsePagination(r)
	return ListParams{
		Limit:  pg.Limit,
		Cursor: pg.Cursor,
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	}
}

package shared

import (
	"net/http"
	"strconv"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PageParams carries limit/offset list parameters.
type PageParams struct {
	Limit  int
	Offset int
}

// PageParamsFromRequest reads limit/offset query parameters, clamping to
// sane bounds.
func PageParamsFromRequest(r *http.Request) PageParams {
	p := PageParams{Limit: defaultListLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Offset = v
		}
	}
	return p
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// NewPagination computes pagination metadata for a listing response.
func NewPagination(params PageParams, total int) Pagination {
	return Pagination{Limit: params.Limit, Offset: params.Offset, Total: total}
}

package utils

import (
	"net/http"
	"strconv"
)

// ParsePagination reads ?skip= and ?limit= from the query. limit falls back
// to def and is capped at max; a zero limit means no limit at all.
func ParsePagination(r *http.Request, def, max int64) (skip, limit int64) {
	q := r.URL.Query()
	limit = def
	if v, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}
	if max > 0 && limit > max {
		limit = max
	}
	if v, err := strconv.ParseInt(q.Get("skip"), 10, 64); err == nil && v > 0 {
		skip = v
	}
	return skip, limit
}

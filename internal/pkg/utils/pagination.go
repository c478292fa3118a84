package utils

import (
	"net/http"
	"strconv"
)

// PaginationParams holds skip/limit style paging
type PaginationParams struct {
	Skip  int
	Limit int
}

// DefaultLimit is the default number of items returned by list endpoints
const DefaultLimit = 50

// MaxLimit is the maximum number of items a caller may request
const MaxLimit = 100

// ParsePaginationParams reads skip and limit from the query string and
// clamps them to sane bounds.
func ParsePaginationParams(r *http.Request) PaginationParams {
	q := r.URL.Query()
	skip := parseIntQuery(q.Get("skip"), 0)
	limit := parseIntQuery(q.Get("limit"), DefaultLimit)

	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return PaginationParams{Skip: skip, Limit: limit}
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, key string) (*int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &i, true
}

// QueryFloat parses an optional float query parameter.
func QueryFloat(r *http.Request, key string) (*float64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

// QueryBool parses a boolean query parameter, defaulting to false.
func QueryBool(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && b
}

func parseIntQuery(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

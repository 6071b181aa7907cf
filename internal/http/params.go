package http

import (
	"net/http"
	"strconv"
	"strings"

	"schoolhub/internal/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// listParamsFromRequest normalizes page, limit and sort. Out-of-range or
// unparseable values fall back to defaults rather than erroring.
func listParamsFromRequest(r *http.Request) repository.ListParams {
	p := repository.ListParams{
		Page:      defaultPage,
		Limit:     defaultLimit,
		SortField: "name",
		SortOrder: "asc",
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			p.Page = parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxLimit {
			p.Limit = parsed
		}
	}
	if raw := r.URL.Query().Get("sort"); raw != "" {
		field, order, found := strings.Cut(raw, ":")
		if field != "" {
			p.SortField = field
		}
		if found && order == "desc" {
			p.SortOrder = "desc"
		}
	}
	return p
}

func optionalQuery(r *http.Request, name string) *string {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil
	}
	return &value
}

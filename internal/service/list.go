package service

import "schoolhub/internal/repository"

// ListResult is the shared paginated response shape. It is what gets cached,
// so a hit returns exactly the payload a previous miss composed.
type ListResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func sortKey(p repository.ListParams) string {
	return p.SortField + ":" + p.SortOrder
}

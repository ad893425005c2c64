package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams selects one page of a trip listing. Page is 1-indexed.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams applies defaults to optional page and limit values.
// Values below 1 fall back to the defaults and limit is capped at MaxPageSize.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageSize}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageSize)
	}
	return p
}

// ParsePaginationParams reads page and limit from raw query values. Empty
// values take the defaults; anything that is not a positive integer is an
// ErrValidation.
func ParsePaginationParams(page, limit string) (PaginationParams, error) {
	pg, err := positiveOrNil("page", page)
	if err != nil {
		return PaginationParams{}, err
	}
	lim, err := positiveOrNil("limit", limit)
	if err != nil {
		return PaginationParams{}, err
	}
	return NewPaginationParams(pg, lim), nil
}

func positiveOrNil(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrValidation, field, raw)
	}
	return &n, nil
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages reports how many pages total rows span at this page size.
func (p PaginationParams) TotalPages(total int64) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

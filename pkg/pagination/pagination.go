package pagination

import (
	"fmt"
	"strconv"
)

const (
	// DefaultLimit is applied when the caller does not specify a page size.
	DefaultLimit = 25
	// MaxLimit caps the page size regardless of what the caller asks for.
	MaxLimit = 100
)

// Page carries normalized offset pagination parameters.
type Page struct {
	Limit  int
	Offset int
}

// Meta describes a page of results in list responses.
type Meta struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// Parse normalizes raw limit/offset query values into a Page, clamping
// the limit and rejecting negative offsets.
func Parse(rawLimit, rawOffset string) (Page, error) {
	page := Page{Limit: DefaultLimit}

	if rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit <= 0 {
			return Page{}, fmt.Errorf("limit must be a positive integer")
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		page.Limit = limit
	}

	if rawOffset != "" {
		offset, err := strconv.Atoi(rawOffset)
		if err != nil || offset < 0 {
			return Page{}, fmt.Errorf("offset must be a non-negative integer")
		}
		page.Offset = offset
	}

	return page, nil
}

// NewMeta builds response metadata for a page.
func NewMeta(page Page, total int64) Meta {
	return Meta{Limit: page.Limit, Offset: page.Offset, Total: total}
}

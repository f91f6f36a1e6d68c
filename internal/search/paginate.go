package search

import (
	"strconv"
	"strings"
)

// ParsePage coerces raw user input to a 1-based page number. Anything that
// does not parse as a positive integer becomes page 1; malformed pagination
// input is never an error.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PageCount returns ceil(total/pageSize), never less than 1.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// ClampPage returns the effective page for a request: out-of-range pages
// land on the last valid page rather than an empty one.
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages >= 1 && page > totalPages {
		return totalPages
	}
	return page
}

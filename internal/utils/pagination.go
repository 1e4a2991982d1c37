// Package utils holds tiny helpers shared across layers, free of any
// domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 integer and falls back to def when s is
// empty or not a valid integer. Input is not trimmed: " 42" is invalid.
//
// It exists for query-string parsing, where absent and malformed values
// should both read as the documented default:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Package search filters small in-memory record lists by free text.
package search

import "strings"

// Filter returns the items for which the lowercased query is a substring of
// at least one of the lowercased values produced by fields. A query that is
// empty or only whitespace returns items unchanged.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}
	needle := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matches(fields(item), needle) {
			out = append(out, item)
		}
	}
	return out
}

func matches(values []string, needle string) bool {
	for _, v := range values {
		if v != "" && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

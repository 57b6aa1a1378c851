// Package strings holds list helpers for configuration values.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops blanks and repeats, keeping the
// first occurrence's order.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitList splits a comma-separated value such as a broker list. An input
// with no entries yields nil.
func SplitList(raw string) []string {
	out := DedupeAndTrim(strings.Split(raw, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}

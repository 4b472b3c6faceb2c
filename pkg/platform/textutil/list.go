// Package textutil holds small string list helpers shared by config parsing.
package textutil

import "strings"

// DedupeAndTrim trims each value and drops empties and repeats, keeping
// first-seen order. A nil input stays nil.
func DedupeAndTrim(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SplitList splits a comma separated value, e.g. CORS_ALLOWED_ORIGINS.
func SplitList(v string) []string {
	return DedupeAndTrim(strings.Split(v, ","))
}

// Package strings normalizes list-valued settings such as broker addresses.
package strings

import (
	"slices"
	"strings"
)

// CompactList trims every entry and drops blanks and repeats, keeping the
// first occurrence. It returns nil when nothing remains, so "KAFKA_BROKERS= ,"
// reads as unset.
func CompactList(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

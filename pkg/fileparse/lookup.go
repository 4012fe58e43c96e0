package fileparse

import "strings"

// Lookup returns the first non-empty value among the accepted header
// aliases. Exact matches win; otherwise headers are compared with casing
// and whitespace removed, so "Supplier Name", "supplier_name" and
// "SupplierName" all resolve the same column. Values come back trimmed.
func (r Row) Lookup(aliases ...string) string {
	for _, alias := range aliases {
		if val, ok := r[alias]; ok {
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		}
	}
	for _, alias := range aliases {
		want := normalizeHeader(alias)
		for header, val := range r {
			if normalizeHeader(header) != want {
				continue
			}
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func normalizeHeader(header string) string {
	lowered := strings.ToLower(header)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_':
			return -1
		}
		return r
	}, lowered)
}

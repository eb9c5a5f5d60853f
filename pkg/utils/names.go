// Package utils holds small normalization helpers for operator-keyed data.
// OSCA encoders type fast on old keyboards; the registry stores a canonical
// form so the same person keyed twice produces byte-identical columns.
package utils

import "strings"

// CanonicalName trims, collapses internal whitespace, and uppercases a name
// the way registry ledgers are kept.
func CanonicalName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// CanonicalNamePtr applies CanonicalName to an optional field. A pointer to
// an effectively empty string becomes nil so the column stays NULL.
func CanonicalNamePtr(name *string) *string {
	if name == nil {
		return nil
	}
	c := CanonicalName(*name)
	if c == "" {
		return nil
	}
	return &c
}

// CollapseSpaces trims and collapses runs of whitespace without changing
// case. Used for free-text fields like address where case carries meaning.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CollapseSpacesPtr is CollapseSpaces for optional fields, mapping empty
// results to nil.
func CollapseSpacesPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := CollapseSpaces(*s)
	if c == "" {
		return nil
	}
	return &c
}

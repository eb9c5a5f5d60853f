package matching

import (
	"strings"
	"time"
)

// PersonRecord is the immutable input view the engine compares. Callers build
// it from registry citizens; the engine never mutates it and retains no
// reference after a call returns.
type PersonRecord struct {
	ID            int64
	LastName      string
	FirstName     string
	MiddleName    *string
	ExtensionName *string
	BirthDate     time.Time
}

// foldEqual compares two required name fields case-insensitively.
// Values are trimmed first; human-entered registry data routinely carries
// stray whitespace.
func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// optionalStringsEqual implements the equality policy for optional name
// fields: absent on both sides (nil or blank) counts as a match. Named so the
// policy is auditable and testable in isolation.
func optionalStringsEqual(a, b *string) bool {
	av, bv := "", ""
	if a != nil {
		av = strings.TrimSpace(*a)
	}
	if b != nil {
		bv = strings.TrimSpace(*b)
	}
	if av == "" && bv == "" {
		return true
	}
	return strings.EqualFold(av, bv)
}

// fieldMatches applies the per-field comparison rule for f.
func fieldMatches(f Field, a, b PersonRecord) bool {
	switch f {
	case FieldLastName:
		return foldEqual(a.LastName, b.LastName)
	case FieldFirstName:
		return foldEqual(a.FirstName, b.FirstName)
	case FieldMiddleName:
		return optionalStringsEqual(a.MiddleName, b.MiddleName)
	case FieldExtensionName:
		return optionalStringsEqual(a.ExtensionName, b.ExtensionName)
	case FieldBirthDate:
		ay, am, ad := a.BirthDate.Date()
		by, bm, bd := b.BirthDate.Date()
		return ay == by && am == bm && ad == bd
	case FieldBirthMonth:
		return a.BirthDate.Month() == b.BirthDate.Month()
	case FieldBirthDay:
		return a.BirthDate.Day() == b.BirthDate.Day()
	case FieldBirthYear:
		return a.BirthDate.Year() == b.BirthDate.Year()
	default:
		return false
	}
}

// matchedFields returns the fields on which a and b agree, restricted to the
// selection, in the fixed comparison order. This is the single comparison
// primitive shared by the ranked engine and the registration quick check.
func matchedFields(a, b PersonRecord, sel FieldSelection) []Field {
	var out []Field
	for _, f := range allFields {
		if !sel.enabled(f) {
			continue
		}
		if fieldMatches(f, a, b) {
			out = append(out, f)
		}
	}
	return out
}

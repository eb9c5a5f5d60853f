package matching

import "fmt"

// Field identifies one comparable slot of a person record.
type Field string

// The closed set of comparable fields. birthMonth/birthDay/birthYear are
// derived from birthDate and evaluated independently of the exact-date slot,
// so partially mistyped dates still accumulate sub-matches.
const (
	FieldLastName      Field = "lastName"
	FieldFirstName     Field = "firstName"
	FieldMiddleName    Field = "middleName"
	FieldExtensionName Field = "extensionName"
	FieldBirthDate     Field = "birthDate"
	FieldBirthMonth    Field = "birthMonth"
	FieldBirthDay      Field = "birthDay"
	FieldBirthYear     Field = "birthYear"
)

// ComparableFieldCount is the fixed denominator of the confidence formula.
// It stays at 8 even when a selection disables fields; disabling can only
// lower attainable confidence, never renormalize the score.
const ComparableFieldCount = 8

// allFields lists fields in comparison order. Output ordering of matched
// fields follows this order.
var allFields = [ComparableFieldCount]Field{
	FieldLastName,
	FieldFirstName,
	FieldMiddleName,
	FieldExtensionName,
	FieldBirthDate,
	FieldBirthMonth,
	FieldBirthDay,
	FieldBirthYear,
}

// FieldSelection controls which fields participate in comparison.
// The zero value disables everything; use DefaultFieldSelection or
// FieldSelectionFromMap to construct one.
type FieldSelection struct {
	LastName      bool
	FirstName     bool
	MiddleName    bool
	ExtensionName bool
	BirthDate     bool
	BirthMonth    bool
	BirthDay      bool
	BirthYear     bool
}

// DefaultFieldSelection enables all eight fields.
func DefaultFieldSelection() FieldSelection {
	return FieldSelection{
		LastName:      true,
		FirstName:     true,
		MiddleName:    true,
		ExtensionName: true,
		BirthDate:     true,
		BirthMonth:    true,
		BirthDay:      true,
		BirthYear:     true,
	}
}

// FieldSelectionFromMap builds a selection from a name→enabled map.
// Keys missing from the map default to enabled. Unknown keys are rejected
// rather than silently ignored.
func FieldSelectionFromMap(m map[string]bool) (FieldSelection, error) {
	sel := DefaultFieldSelection()
	for k, v := range m {
		switch Field(k) {
		case FieldLastName:
			sel.LastName = v
		case FieldFirstName:
			sel.FirstName = v
		case FieldMiddleName:
			sel.MiddleName = v
		case FieldExtensionName:
			sel.ExtensionName = v
		case FieldBirthDate:
			sel.BirthDate = v
		case FieldBirthMonth:
			sel.BirthMonth = v
		case FieldBirthDay:
			sel.BirthDay = v
		case FieldBirthYear:
			sel.BirthYear = v
		default:
			return FieldSelection{}, &InvalidArgumentError{
				Op:  "matching.FieldSelectionFromMap",
				Msg: fmt.Sprintf("unknown field %q", k),
			}
		}
	}
	return sel, nil
}

// enabled reports whether f participates under this selection.
func (s FieldSelection) enabled(f Field) bool {
	switch f {
	case FieldLastName:
		return s.LastName
	case FieldFirstName:
		return s.FirstName
	case FieldMiddleName:
		return s.MiddleName
	case FieldExtensionName:
		return s.ExtensionName
	case FieldBirthDate:
		return s.BirthDate
	case FieldBirthMonth:
		return s.BirthMonth
	case FieldBirthDay:
		return s.BirthDay
	case FieldBirthYear:
		return s.BirthYear
	default:
		return false
	}
}

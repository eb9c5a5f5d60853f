package matching

import (
	"reflect"
	"testing"
)

func TestQuickDuplicateCheck_TwoNameFields(t *testing.T) {
	existing := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
		rec(2, "SANTOS", "MARIA", strp("CRUZ"), nil, "1938-01-01"),
		rec(3, "REYES", "JOSE", strp("LOPEZ"), nil, "1936-02-02"),
	}
	candidate := rec(0, "santos", "Pedro", strp("REYES"), nil, "")

	hits := QuickDuplicateCheck(candidate, existing)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %+v", hits)
	}
	if hits[0].Record.ID != 1 {
		t.Fatalf("expected hit on record 1, got %d", hits[0].Record.ID)
	}
	want := []Field{FieldLastName, FieldFirstName}
	if !reflect.DeepEqual(hits[0].MatchedFields, want) {
		t.Fatalf("matched fields = %v, want %v", fieldNames(hits[0].MatchedFields), fieldNames(want))
	}
}

func TestQuickDuplicateCheck_SingleFieldIsNoHit(t *testing.T) {
	existing := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
	}
	candidate := rec(0, "SANTOS", "JUAN", strp("LOPEZ"), nil, "")
	if hits := QuickDuplicateCheck(candidate, existing); len(hits) != 0 {
		t.Fatalf("one matched field must not trigger a hit, got %+v", hits)
	}
}

func TestQuickDuplicateCheck_BothMiddleNamesAbsent(t *testing.T) {
	// middleName absent on both sides counts as a match; combined with a
	// matching last name that reaches the two-field trigger.
	existing := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", nil, nil, "1940-05-12"),
	}
	candidate := rec(0, "SANTOS", "JUAN", strp(""), nil, "")
	hits := QuickDuplicateCheck(candidate, existing)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %+v", hits)
	}
	want := []Field{FieldLastName, FieldMiddleName}
	if !reflect.DeepEqual(hits[0].MatchedFields, want) {
		t.Fatalf("matched fields = %v, want %v", fieldNames(hits[0].MatchedFields), fieldNames(want))
	}
}

func TestQuickDuplicateCheck_SkipsSelf(t *testing.T) {
	existing := []PersonRecord{
		rec(5, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
	}
	// Re-checking a record already in the registry must not match itself.
	candidate := rec(5, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")
	if hits := QuickDuplicateCheck(candidate, existing); len(hits) != 0 {
		t.Fatalf("candidate matched itself: %+v", hits)
	}
}

func TestQuickDuplicateCheck_IgnoresBirthDates(t *testing.T) {
	// Zero birth dates are fine here; the entry subset has no date fields.
	existing := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, ""),
	}
	candidate := rec(0, "SANTOS", "PEDRO", strp("LOPEZ"), nil, "")
	if hits := QuickDuplicateCheck(candidate, existing); len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %+v", hits)
	}
}

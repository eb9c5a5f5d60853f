package matching

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func rec(id int64, last, first string, middle, ext *string, birth string) PersonRecord {
	var bd time.Time
	if birth != "" {
		var err error
		bd, err = time.Parse("2006-01-02", birth)
		if err != nil {
			panic(err)
		}
	}
	return PersonRecord{ID: id, LastName: last, FirstName: first, MiddleName: middle, ExtensionName: ext, BirthDate: bd}
}

func fieldNames(fs []Field) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}

func TestFindMatches_ExactDuplicate(t *testing.T) {
	a := rec(1, "DELA CRUZ", "JUAN", strp("SANTOS"), strp(""), "1940-05-12")
	b := rec(2, "dela cruz", "Juan", strp("santos"), nil, "1940-05-12")

	results, err := FindMatches([]PersonRecord{a, b}, DefaultFieldSelection(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	m := results[0]
	if len(m.MatchedFields) != 8 {
		t.Fatalf("expected 8 matched fields, got %v", fieldNames(m.MatchedFields))
	}
	if m.ConfidenceScore != 100 {
		t.Fatalf("expected confidence 100, got %v", m.ConfidenceScore)
	}
}

func TestFindMatches_BelowEmissionMinimum(t *testing.T) {
	// Only lastName matches: one field is below the fixed 2-field minimum,
	// so the pair never appears even at threshold 0.
	a := rec(1, "REYES", "MARIA", strp("LOPEZ"), nil, "1935-01-02")
	b := rec(2, "REYES", "JOSE", strp("GARCIA"), strp("JR"), "1933-11-30")

	results, err := FindMatches([]PersonRecord{a, b}, DefaultFieldSelection(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestFindMatches_PartialBirthDate(t *testing.T) {
	// Same month and day, different year: lastName, firstName, birthMonth,
	// birthDay match. middleName and extensionName differ on one side.
	a := rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")
	b := rec(2, "SANTOS", "PEDRO", strp("REYES"), strp("SR"), "1942-05-12")

	results, err := FindMatches([]PersonRecord{a, b}, DefaultFieldSelection(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	m := results[0]
	want := []Field{FieldLastName, FieldFirstName, FieldBirthMonth, FieldBirthDay}
	if !reflect.DeepEqual(m.MatchedFields, want) {
		t.Fatalf("matched fields = %v, want %v", fieldNames(m.MatchedFields), fieldNames(want))
	}
	if m.ConfidenceScore != 50 {
		t.Fatalf("expected confidence 50, got %v", m.ConfidenceScore)
	}
}

func TestFindMatches_ThresholdFilter(t *testing.T) {
	// pair (1,2): 4 of 8 fields -> 50. pair (3,4): 5 of 8 -> 62.5.
	a := rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")
	b := rec(2, "SANTOS", "PEDRO", strp("REYES"), strp("SR"), "1942-05-12")
	c := rec(3, "LIM", "ROSA", strp("TAN"), nil, "1938-03-04")
	d := rec(4, "LIM", "ROSA", strp("UY"), nil, "1939-03-04")

	results, err := FindMatches([]PersonRecord{a, b, c, d}, DefaultFieldSelection(), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the 62.5 pair, got %+v", results)
	}
	if results[0].RecordA.ID != 3 || results[0].RecordB.ID != 4 {
		t.Fatalf("unexpected pair: %d/%d", results[0].RecordA.ID, results[0].RecordB.ID)
	}
	if results[0].ConfidenceScore != 62.5 {
		t.Fatalf("expected confidence 62.5, got %v", results[0].ConfidenceScore)
	}
}

func TestFindMatches_Symmetry(t *testing.T) {
	a := rec(1, "GARCIA", "ANA", strp("DIZON"), nil, "1941-07-09")
	b := rec(2, "GARCIA", "ANA", nil, nil, "1941-09-07")

	fwd, err := FindMatches([]PersonRecord{a, b}, DefaultFieldSelection(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rev, err := FindMatches([]PersonRecord{b, a}, DefaultFieldSelection(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fwd) != 1 || len(rev) != 1 {
		t.Fatalf("expected 1 result each way, got %d and %d", len(fwd), len(rev))
	}
	if !reflect.DeepEqual(fwd[0].MatchedFields, rev[0].MatchedFields) {
		t.Fatalf("matched fields differ by input order: %v vs %v",
			fieldNames(fwd[0].MatchedFields), fieldNames(rev[0].MatchedFields))
	}
}

func TestFindMatches_ThresholdMonotonicity(t *testing.T) {
	records := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
		rec(2, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
		rec(3, "SANTOS", "PEDRO", strp("REYES"), nil, "1942-05-12"),
		rec(4, "LIM", "ROSA", nil, nil, "1938-03-04"),
	}
	prev := -1
	for _, th := range []float64{0, 25, 50, 75, 100} {
		results, err := FindMatches(records, DefaultFieldSelection(), th)
		if err != nil {
			t.Fatalf("threshold %v: unexpected error: %v", th, err)
		}
		if prev >= 0 && len(results) > prev {
			t.Fatalf("raising threshold to %v increased result count %d -> %d", th, prev, len(results))
		}
		prev = len(results)
	}
}

func TestFindMatches_FieldSelectionMonotonicity(t *testing.T) {
	a := rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")
	b := rec(2, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")

	full, err := FindMatches([]PersonRecord{a, b}, DefaultFieldSelection(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sel := DefaultFieldSelection()
	sel.BirthYear = false
	sel.MiddleName = false
	reduced, err := FindMatches([]PersonRecord{a, b}, sel, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(full) != 1 || len(reduced) != 1 {
		t.Fatalf("expected 1 result each, got %d and %d", len(full), len(reduced))
	}
	if reduced[0].ConfidenceScore > full[0].ConfidenceScore {
		t.Fatalf("disabling fields raised confidence %v -> %v",
			full[0].ConfidenceScore, reduced[0].ConfidenceScore)
	}
	// Denominator stays 8: 6 of 8 enabled fields all matching gives 75, not 100.
	if reduced[0].ConfidenceScore != 75 {
		t.Fatalf("expected fixed-denominator confidence 75, got %v", reduced[0].ConfidenceScore)
	}
}

func TestFindMatches_Idempotence(t *testing.T) {
	records := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
		rec(2, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
		rec(3, "SANTOS", "PEDRO", strp("REYES"), nil, "1942-05-12"),
		rec(4, "SANTOS", "PEDRA", strp("CRUZ"), nil, "1940-05-12"),
	}
	first, err := FindMatches(records, DefaultFieldSelection(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := FindMatches(records, DefaultFieldSelection(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated invocation differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFindMatches_StableTieOrder(t *testing.T) {
	// Three identical records produce pairs (0,1), (0,2), (1,2) all at 100;
	// the tie order must follow enumeration order.
	r := func(id int64) PersonRecord {
		return rec(id, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")
	}
	results, err := FindMatches([]PersonRecord{r(10), r(20), r(30)}, DefaultFieldSelection(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantPairs := [][2]int{{0, 1}, {0, 2}, {1, 2}}
	for i, w := range wantPairs {
		if results[i].IndexA != w[0] || results[i].IndexB != w[1] {
			t.Fatalf("result %d: pair (%d,%d), want (%d,%d)",
				i, results[i].IndexA, results[i].IndexB, w[0], w[1])
		}
	}
}

func TestFindMatches_EmptyAndSingleInput(t *testing.T) {
	for _, records := range [][]PersonRecord{
		nil,
		{},
		{rec(1, "SANTOS", "PEDRO", nil, nil, "1940-05-12")},
	} {
		results, err := FindMatches(records, DefaultFieldSelection(), 50)
		if err != nil {
			t.Fatalf("unexpected error for %d records: %v", len(records), err)
		}
		if len(results) != 0 {
			t.Fatalf("expected empty result for %d records, got %+v", len(records), results)
		}
	}
}

func TestFindMatches_InvalidThreshold(t *testing.T) {
	records := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", nil, nil, "1940-05-12"),
		rec(2, "SANTOS", "PEDRO", nil, nil, "1940-05-12"),
	}
	for _, th := range []float64{-0.1, 100.1, 200} {
		_, err := FindMatches(records, DefaultFieldSelection(), th)
		var inv *InvalidArgumentError
		if !errors.As(err, &inv) {
			t.Fatalf("threshold %v: expected InvalidArgumentError, got %v", th, err)
		}
	}
}

func TestFindMatches_MalformedRecord(t *testing.T) {
	records := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", nil, nil, "1940-05-12"),
		rec(7, "SANTOS", "PEDRO", nil, nil, ""), // zero birth date
	}
	_, err := FindMatches(records, DefaultFieldSelection(), 50)
	var mal *MalformedRecordError
	if !errors.As(err, &mal) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
	if mal.RecordID != 7 || mal.Index != 1 {
		t.Fatalf("error should identify the offending record: %+v", mal)
	}
}

func TestFindMatches_DoesNotMutateInput(t *testing.T) {
	records := []PersonRecord{
		rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
		rec(2, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12"),
	}
	snapshot := make([]PersonRecord, len(records))
	copy(snapshot, records)

	if _, err := FindMatches(records, DefaultFieldSelection(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(records, snapshot) {
		t.Fatalf("engine mutated its input")
	}
}

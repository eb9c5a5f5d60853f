package matching

import (
	"reflect"
	"testing"
)

func TestOptionalStringsEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b *string
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil and empty", nil, strp(""), true},
		{"nil and blank", nil, strp("  "), true},
		{"both empty", strp(""), strp(""), true},
		{"nil and value", nil, strp("SANTOS"), false},
		{"empty and value", strp(""), strp("SANTOS"), false},
		{"equal values", strp("SANTOS"), strp("SANTOS"), true},
		{"case folded", strp("Santos"), strp("SANTOS"), true},
		{"trimmed", strp(" SANTOS "), strp("SANTOS"), true},
		{"different values", strp("SANTOS"), strp("REYES"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := optionalStringsEqual(tc.a, tc.b); got != tc.want {
				t.Fatalf("optionalStringsEqual = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchedFields_DerivedDateComponents(t *testing.T) {
	// Different exact dates can still credit month/day/year independently.
	cases := []struct {
		name   string
		birthA string
		birthB string
		want   []Field
	}{
		{"identical date", "1940-05-12", "1940-05-12",
			[]Field{FieldBirthDate, FieldBirthMonth, FieldBirthDay, FieldBirthYear}},
		{"transposed month and day", "1940-05-12", "1940-12-05",
			[]Field{FieldBirthYear}},
		{"same month day different year", "1940-05-12", "1942-05-12",
			[]Field{FieldBirthMonth, FieldBirthDay}},
		{"same year only", "1940-05-12", "1940-07-08",
			[]Field{FieldBirthYear}},
		{"nothing shared", "1940-05-12", "1941-06-13", nil},
	}

	sel := FieldSelection{BirthDate: true, BirthMonth: true, BirthDay: true, BirthYear: true}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := rec(1, "X", "Y", nil, nil, tc.birthA)
			b := rec(2, "X", "Y", nil, nil, tc.birthB)
			got := matchedFields(a, b, sel)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("matchedFields = %v, want %v", fieldNames(got), fieldNames(tc.want))
			}
		})
	}
}

func TestMatchedFields_SelectionRestricts(t *testing.T) {
	a := rec(1, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")
	b := rec(2, "SANTOS", "PEDRO", strp("CRUZ"), nil, "1940-05-12")

	sel := FieldSelection{LastName: true, BirthYear: true}
	got := matchedFields(a, b, sel)
	want := []Field{FieldLastName, FieldBirthYear}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("matchedFields = %v, want %v", fieldNames(got), fieldNames(want))
	}
}

func TestFieldSelectionFromMap(t *testing.T) {
	sel, err := FieldSelectionFromMap(map[string]bool{"birthYear": false, "middleName": false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.BirthYear || sel.MiddleName {
		t.Fatalf("disabled fields still enabled: %+v", sel)
	}
	if !sel.LastName || !sel.FirstName || !sel.BirthDate {
		t.Fatalf("omitted fields should default to enabled: %+v", sel)
	}
}

func TestFieldSelectionFromMap_UnknownKey(t *testing.T) {
	_, err := FieldSelectionFromMap(map[string]bool{"nickName": true})
	if err == nil {
		t.Fatal("expected error for unknown field key")
	}
	if _, ok := err.(*InvalidArgumentError); !ok {
		t.Fatalf("expected InvalidArgumentError, got %T: %v", err, err)
	}
}

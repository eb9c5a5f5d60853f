package utils

import "testing"

func TestCanonicalName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"dela cruz", "DELA CRUZ"},
		{"  Dela   Cruz  ", "DELA CRUZ"},
		{"SANTOS", "SANTOS"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := CanonicalName(tc.in); got != tc.want {
			t.Fatalf("CanonicalName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalNamePtr_EmptyBecomesNil(t *testing.T) {
	blank := "   "
	if got := CanonicalNamePtr(&blank); got != nil {
		t.Fatalf("expected nil for blank input, got %q", *got)
	}
	if got := CanonicalNamePtr(nil); got != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestNormalizeContactNumber(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"09171234567", "+639171234567"},
		{"+63 917 123 4567", "+639171234567"},
		{"63-917-123-4567", "+639171234567"},
		{"9171234567", "+639171234567"},
		{"(02) 8888-1234", "0288881234"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeContactNumber(tc.in); got != tc.want {
			t.Fatalf("NormalizeContactNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSameContactNumber(t *testing.T) {
	if !SameContactNumber("09171234567", "+63 917 123 4567") {
		t.Fatal("expected same line across formats")
	}
	if !SameContactNumber("9171234567", "09171234567") {
		t.Fatal("expected match when country code is missing")
	}
	if SameContactNumber("09171234567", "09181234567") {
		t.Fatal("different lines must not match")
	}
	if SameContactNumber("", "09171234567") {
		t.Fatal("empty never matches")
	}
}

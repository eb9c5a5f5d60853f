package utils

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// NormalizeContactNumber canonicalizes a Philippine contact number.
// Mobile numbers become +639XXXXXXXXX regardless of how they were keyed
// (0917..., 63917..., +63 917-...). Anything that does not look like a
// PH mobile or landline is returned digit-stripped with the original
// leading + preserved, so odd numbers survive round trips unharmed.
func NormalizeContactNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	plus := strings.HasPrefix(raw, "+")
	digits := nonDigit.ReplaceAllString(raw, "")

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "09"):
		return "+63" + digits[1:]
	case len(digits) == 12 && strings.HasPrefix(digits, "639"):
		return "+" + digits
	case len(digits) == 10 && strings.HasPrefix(digits, "9"):
		return "+63" + digits
	}
	if plus {
		return "+" + digits
	}
	return digits
}

// NormalizeContactNumberPtr is NormalizeContactNumber for optional fields.
func NormalizeContactNumberPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	n := NormalizeContactNumber(*raw)
	if n == "" {
		return nil
	}
	return &n
}

// SameContactNumber reports whether two numbers refer to the same line after
// normalization. The last-9-digit fallback tolerates one side missing the
// country code.
func SameContactNumber(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	na, nb := NormalizeContactNumber(a), NormalizeContactNumber(b)
	if na == nb {
		return true
	}
	da := nonDigit.ReplaceAllString(na, "")
	db := nonDigit.ReplaceAllString(nb, "")
	if len(da) >= 9 && len(db) >= 9 {
		return da[len(da)-9:] == db[len(db)-9:]
	}
	return false
}

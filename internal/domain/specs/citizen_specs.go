package specs

import (
	"context"
	"strings"
	"time"

	"eca-system/internal/models"
)

// Citizen predicates used by eligibility checks and registry filters.

// ActiveCitizen matches citizens still part of the live registry.
func ActiveCitizen() Specification[models.Citizen] {
	return New(func(_ context.Context, c models.Citizen) bool {
		return c.Status == models.CitizenStatusActive
	})
}

// HasCompleteIdentity requires the fields double-entry verification keys:
// last name, first name, and a decomposable birth date.
func HasCompleteIdentity() Specification[models.Citizen] {
	return New(func(_ context.Context, c models.Citizen) bool {
		return strings.TrimSpace(c.LastName) != "" &&
			strings.TrimSpace(c.FirstName) != "" &&
			!c.BirthDate.IsZero()
	})
}

// ReachedAge matches citizens at least age full years old at ref.
func ReachedAge(age int, ref time.Time) Specification[models.Citizen] {
	return New(func(_ context.Context, c models.Citizen) bool {
		if c.BirthDate.IsZero() {
			return false
		}
		return c.AgeAt(ref) >= age
	})
}

// InBarangay matches citizens registered under the named barangay,
// case-insensitively.
func InBarangay(name string) Specification[models.Citizen] {
	return New(func(_ context.Context, c models.Citizen) bool {
		return c.Barangay != nil && strings.EqualFold(strings.TrimSpace(*c.Barangay), strings.TrimSpace(name))
	})
}

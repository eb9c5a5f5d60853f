// Package registration implements citizen intake: field validation,
// double-entry verification, and the pre-insert duplicate check.
package registration

import (
	"strings"
	"time"

	errs "eca-system/pkg/errors"
)

// Entry is one keyed-in registration form. Double-entry verification requires
// two independently keyed Entries that agree on every field.
type Entry struct {
	LastName      string  `json:"last_name"`
	FirstName     string  `json:"first_name"`
	MiddleName    *string `json:"middle_name,omitempty"`
	ExtensionName *string `json:"extension_name,omitempty"`
	BirthDate     string  `json:"birth_date"` // YYYY-MM-DD
	Sex           *string `json:"sex,omitempty"`
	CivilStatus   *string `json:"civil_status,omitempty"`
	Barangay      *string `json:"barangay,omitempty"`
	Address       *string `json:"address,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
	OSCAID        *string `json:"osca_id,omitempty"`
}

// ParseBirthDate decodes the entry's birth date.
func (e Entry) ParseBirthDate() (time.Time, error) {
	bd, err := time.Parse("2006-01-02", strings.TrimSpace(e.BirthDate))
	if err != nil {
		return time.Time{}, errs.NewValidation("Entry.ParseBirthDate", "birth date must be YYYY-MM-DD", err)
	}
	return bd, nil
}

// Validate checks a single entry's fields before any cross-entry comparison.
func (e Entry) Validate() error {
	if l := len(strings.TrimSpace(e.LastName)); l < 2 || l > 100 {
		return errs.NewValidation("Entry.Validate", "last name must be 2-100 characters", nil)
	}
	if l := len(strings.TrimSpace(e.FirstName)); l < 2 || l > 100 {
		return errs.NewValidation("Entry.Validate", "first name must be 2-100 characters", nil)
	}
	if _, err := e.ParseBirthDate(); err != nil {
		return err
	}
	if e.ContactNumber != nil && *e.ContactNumber != "" {
		if !phonePattern.MatchString(strings.TrimSpace(*e.ContactNumber)) {
			return errs.NewValidation("Entry.Validate", "contact number contains invalid characters", nil)
		}
	}
	return nil
}

package domain

import (
	"encoding/json"
	"fmt"
)

// CitizenFieldData carries the identity fields a merge may overwrite.
// Used twice in a MergeReplacement: once for the survivor's original values,
// once for the values taken from the merged duplicate.
type CitizenFieldData struct {
	LastName      *string `json:"last_name,omitempty"`
	FirstName     *string `json:"first_name,omitempty"`
	MiddleName    *string `json:"middle_name,omitempty"`
	ExtensionName *string `json:"extension_name,omitempty"`
	BirthDate     *string `json:"birth_date,omitempty"` // ISO date
	Barangay      *string `json:"barangay,omitempty"`
	Address       *string `json:"address,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
}

// MergeReplacement tracks original vs replacement values for audit purposes.
type MergeReplacement struct {
	Original    *CitizenFieldData `json:"original,omitempty"`
	Replacement *CitizenFieldData `json:"replacement,omitempty"`
}

// ToJSON serializes the replacement for audit log storage.
func (mr *MergeReplacement) ToJSON() (string, error) {
	if mr == nil {
		return "{}", nil
	}
	b, err := json.Marshal(mr)
	if err != nil {
		return "", fmt.Errorf("marshal merge replacement: %w", err)
	}
	return string(b), nil
}

// HasReplacements reports whether any field is actually overwritten.
func (mr *MergeReplacement) HasReplacements() bool {
	return mr != nil && mr.Original != nil && mr.Replacement != nil
}

// MergeData contains everything needed to merge a duplicate pair: the
// surviving citizen, the duplicate to retire, and the field replacements to
// apply to the survivor (may be empty when the survivor's data wins).
type MergeData struct {
	SurvivorID   int64
	DuplicateID  int64
	AdminID      int
	Notes        string
	Replacements *MergeReplacement
}

// Validate checks invariants before a merge is attempted.
func (md *MergeData) Validate() error {
	if md == nil {
		return fmt.Errorf("merge data is nil")
	}
	if md.SurvivorID <= 0 || md.DuplicateID <= 0 {
		return fmt.Errorf("merge requires two persisted citizens, got %d and %d", md.SurvivorID, md.DuplicateID)
	}
	if md.SurvivorID == md.DuplicateID {
		return fmt.Errorf("citizen %d cannot be merged with itself", md.SurvivorID)
	}
	if md.AdminID <= 0 {
		return fmt.Errorf("merge requires an acting admin")
	}
	return nil
}

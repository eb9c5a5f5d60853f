package models

import (
	"strings"
	"time"

	"eca-system/internal/matching"
)

// Citizen statuses. A merged citizen remains in the table for audit purposes
// but is excluded from eligibility and duplicate scans.
const (
	CitizenStatusActive   = "active"
	CitizenStatusMerged   = "merged"
	CitizenStatusDeceased = "deceased"
)

// Citizen is a registered senior citizen. Nullable columns are pointers.
type Citizen struct {
	ID            int64      `json:"id" db:"id"`
	ReferenceNo   string     `json:"reference_no" db:"reference_no"` // uuid issued at registration
	LastName      string     `json:"last_name" db:"last_name"`
	FirstName     string     `json:"first_name" db:"first_name"`
	MiddleName    *string    `json:"middle_name" db:"middle_name"`
	ExtensionName *string    `json:"extension_name" db:"extension_name"`
	BirthDate     time.Time  `json:"birth_date" db:"birth_date"`
	Sex           *string    `json:"sex" db:"sex"`
	CivilStatus   *string    `json:"civil_status" db:"civil_status"`
	Barangay      *string    `json:"barangay" db:"barangay"`
	Address       *string    `json:"address" db:"address"`
	ContactNumber *string    `json:"contact_number" db:"contact_number"`
	OSCAID        *string    `json:"osca_id" db:"osca_id"` // Office of Senior Citizens Affairs ID
	Status        string     `json:"status" db:"status"`
	MergedIntoID  *int64     `json:"merged_into_id,omitempty" db:"merged_into_id"`
	RegisteredBy  *int       `json:"registered_by,omitempty" db:"registered_by"`
	CreatedAt     *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at" db:"updated_at"`
}

// PersonRecord projects the citizen onto the similarity engine's input view.
func (c Citizen) PersonRecord() matching.PersonRecord {
	return matching.PersonRecord{
		ID:            c.ID,
		LastName:      c.LastName,
		FirstName:     c.FirstName,
		MiddleName:    c.MiddleName,
		ExtensionName: c.ExtensionName,
		BirthDate:     c.BirthDate,
	}
}

// FullName renders "LAST, FIRST MIDDLE EXT" for listings and logs.
func (c Citizen) FullName() string {
	var b strings.Builder
	b.WriteString(c.LastName)
	b.WriteString(", ")
	b.WriteString(c.FirstName)
	if c.MiddleName != nil && strings.TrimSpace(*c.MiddleName) != "" {
		b.WriteString(" ")
		b.WriteString(*c.MiddleName)
	}
	if c.ExtensionName != nil && strings.TrimSpace(*c.ExtensionName) != "" {
		b.WriteString(" ")
		b.WriteString(*c.ExtensionName)
	}
	return b.String()
}

// AgeAt returns full years between the birth date and ref.
func (c Citizen) AgeAt(ref time.Time) int {
	years := ref.Year() - c.BirthDate.Year()
	anniversary := time.Date(ref.Year(), c.BirthDate.Month(), c.BirthDate.Day(), 0, 0, 0, 0, ref.Location())
	if ref.Before(anniversary) {
		years--
	}
	return years
}

// RegistryStats feeds the dashboard counters.
type RegistryStats struct {
	Citizens             int `json:"citizens"`
	ActiveCitizens       int `json:"active_citizens"`
	MergedCitizens       int `json:"merged_citizens"`
	PendingApplications  int `json:"pending_applications"`
	ApprovedApplications int `json:"approved_applications"`
	ReleasedApplications int `json:"released_applications"`
	RejectedApplications int `json:"rejected_applications"`
	Stakeholders         int `json:"stakeholders"`
}

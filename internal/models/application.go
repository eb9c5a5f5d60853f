package models

import "time"

// Application statuses follow the payout workflow: an application is filed,
// validated against the registry, approved for payout, then released. A
// rejected application is terminal.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusValidated = "validated"
	ApplicationStatusApproved  = "approved"
	ApplicationStatusReleased  = "released"
	ApplicationStatusRejected  = "rejected"
)

// Application is one cash-gift claim for a single milestone age. A citizen
// gets at most one non-rejected application per milestone.
type Application struct {
	ID           int64      `json:"id" db:"id"`
	CitizenID    int64      `json:"citizen_id" db:"citizen_id"`
	MilestoneAge int        `json:"milestone_age" db:"milestone_age"`
	Status       string     `json:"status" db:"status"`
	AmountPHP    float64    `json:"amount_php" db:"amount_php"`
	Remarks      *string    `json:"remarks,omitempty" db:"remarks"`
	FiledByID    *int       `json:"filed_by_id,omitempty" db:"filed_by_id"`
	ReviewedByID *int       `json:"reviewed_by_id,omitempty" db:"reviewed_by_id"`
	FiledAt      time.Time  `json:"filed_at" db:"filed_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReleasedAt   *time.Time `json:"released_at,omitempty" db:"released_at"`
}

// ApplicationWithCitizen joins an application with its citizen for listings.
type ApplicationWithCitizen struct {
	Application Application `json:"application"`
	Citizen     Citizen     `json:"citizen"`
}

// ValidStatusTransition reports whether moving from one status to another is
// allowed by the workflow.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case ApplicationStatusPending:
		return to == ApplicationStatusValidated || to == ApplicationStatusRejected
	case ApplicationStatusValidated:
		return to == ApplicationStatusApproved || to == ApplicationStatusRejected
	case ApplicationStatusApproved:
		return to == ApplicationStatusReleased || to == ApplicationStatusRejected
	default:
		return false
	}
}

package models

import "time"

// Stakeholder is a directory entry for the offices and contacts involved in
// benefit administration (OSCA heads, barangay focal persons, social workers).
type Stakeholder struct {
	ID            int64      `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Role          string     `json:"role" db:"role"`
	Organization  *string    `json:"organization" db:"organization"`
	Barangay      *string    `json:"barangay" db:"barangay"`
	ContactNumber *string    `json:"contact_number" db:"contact_number"`
	Email         *string    `json:"email" db:"email"`
	Active        bool       `json:"active" db:"active"`
	CreatedAt     *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at" db:"updated_at"`
}

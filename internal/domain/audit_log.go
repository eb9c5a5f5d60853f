package domain

import "time"

// Audit actions recorded against the registry.
const (
	AuditActionRegistered        = "registered"
	AuditActionUpdated           = "updated"
	AuditActionMerged            = "merged"
	AuditActionKeptBoth          = "kept_both"
	AuditActionApplicationStatus = "application_status"
)

// RegistryAuditLog is one audit record for a citizen or application action.
// AdminID is nil for system-initiated entries.
type RegistryAuditLog struct {
	ID        int64
	CitizenID int64
	AdminID   *int
	Action    string
	Detail    *string // JSON payload, action-specific
	CreatedAt time.Time
}

// NewAuditLog creates a new audit log entry stamped now.
func NewAuditLog(citizenID int64, adminID *int, action string, detail *string) *RegistryAuditLog {
	return &RegistryAuditLog{
		CitizenID: citizenID,
		AdminID:   adminID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}

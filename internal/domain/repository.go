package domain

import (
	"context"

	"eca-system/internal/domain/specs"
	"eca-system/internal/models"
)

// CitizenRepository defines data access for registered citizens.
type CitizenRepository interface {
	GetActiveCitizensCtx(ctx context.Context) ([]models.Citizen, error)
	GetCitizensFilteredCtx(ctx context.Context, status string, search string, limit int, offset int) ([]models.Citizen, int, error)
	FilterActiveBySpecCtx(ctx context.Context, s specs.Specification[models.Citizen]) ([]models.Citizen, error)
	GetCitizenByIDCtx(ctx context.Context, citizenID int64) (*models.Citizen, error)
	CreateCitizenCtx(ctx context.Context, c *models.Citizen) (int64, error)
	UpdateCitizenCtx(ctx context.Context, c *models.Citizen) error
	UpdateCitizenStatusCtx(ctx context.Context, citizenID int64, status string, mergedIntoID *int64) error
	GetRegistryStatsCtx(ctx context.Context) (*models.RegistryStats, error)
}

// ApplicationRepository defines access to cash-gift applications.
type ApplicationRepository interface {
	CreateApplicationCtx(ctx context.Context, a *models.Application) (int64, error)
	GetApplicationByIDCtx(ctx context.Context, id int64) (*models.Application, error)
	GetApplicationsByCitizenCtx(ctx context.Context, citizenID int64) ([]models.Application, error)
	GetApplicationsFilteredCtx(ctx context.Context, status string, limit int, offset int) ([]models.ApplicationWithCitizen, int, error)
	UpdateApplicationStatusCtx(ctx context.Context, id int64, status string, remarks *string, reviewerID *int) error
	HasGrantForMilestoneCtx(ctx context.Context, citizenID int64, milestoneAge int) (bool, error)
}

// StakeholderRepository defines access to the stakeholder directory.
type StakeholderRepository interface {
	GetStakeholdersCtx(ctx context.Context, activeOnly bool) ([]models.Stakeholder, error)
	GetStakeholderByIDCtx(ctx context.Context, id int64) (*models.Stakeholder, error)
	CreateStakeholderCtx(ctx context.Context, s *models.Stakeholder) (int64, error)
	UpdateStakeholderCtx(ctx context.Context, s *models.Stakeholder) error
	DeactivateStakeholderCtx(ctx context.Context, id int64) error
}

// AuditLogRepository defines audit log data access.
type AuditLogRepository interface {
	CreateAuditLogCtx(ctx context.Context, log *RegistryAuditLog) error
	GetAuditLogsByCitizenCtx(ctx context.Context, citizenID int64) ([]RegistryAuditLog, error)
	GetAuditLogsByAdminCtx(ctx context.Context, adminID int, limit int, offset int) ([]RegistryAuditLog, int, error)
	GetAuditLogsPaginatedCtx(ctx context.Context, limit int, offset int) ([]RegistryAuditLog, int, error)
}

// Repository aggregates the repos commonly required by services.
type Repository interface {
	CitizenRepository
	ApplicationRepository
	StakeholderRepository
	AuditLogRepository
}

package repository

import (
	"context"

	"eca-system/internal/domain"
	"eca-system/internal/domain/specs"
	"eca-system/internal/models"
	"eca-system/pkg/database"
)

// SQLRepository is a thin adapter over pkg/database.DB to satisfy domain repositories.
// It keeps business logic decoupled from the SQL layer.
type SQLRepository struct {
	db *database.DB
}

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Ensure interface compliance at compile time
var _ domain.Repository = (*SQLRepository)(nil)

// CitizenRepository methods
func (r *SQLRepository) GetActiveCitizensCtx(ctx context.Context) ([]models.Citizen, error) {
	return r.db.GetActiveCitizensCtx(ctx)
}

func (r *SQLRepository) GetCitizensFilteredCtx(ctx context.Context, status string, search string, limit int, offset int) ([]models.Citizen, int, error) {
	return r.db.GetCitizensFilteredCtx(ctx, status, search, limit, offset)
}

func (r *SQLRepository) GetCitizenByIDCtx(ctx context.Context, citizenID int64) (*models.Citizen, error) {
	return r.db.GetCitizenByIDCtx(ctx, citizenID)
}

func (r *SQLRepository) CreateCitizenCtx(ctx context.Context, c *models.Citizen) (int64, error) {
	return r.db.CreateCitizenCtx(ctx, c)
}

func (r *SQLRepository) UpdateCitizenCtx(ctx context.Context, c *models.Citizen) error {
	return r.db.UpdateCitizenCtx(ctx, c)
}

func (r *SQLRepository) UpdateCitizenStatusCtx(ctx context.Context, citizenID int64, status string, mergedIntoID *int64) error {
	return r.db.UpdateCitizenStatusCtx(ctx, citizenID, status, mergedIntoID)
}

func (r *SQLRepository) GetRegistryStatsCtx(ctx context.Context) (*models.RegistryStats, error) {
	return r.db.GetRegistryStatsCtx(ctx)
}

// ApplicationRepository methods
func (r *SQLRepository) CreateApplicationCtx(ctx context.Context, a *models.Application) (int64, error) {
	return r.db.CreateApplicationCtx(ctx, a)
}

func (r *SQLRepository) GetApplicationByIDCtx(ctx context.Context, id int64) (*models.Application, error) {
	return r.db.GetApplicationByIDCtx(ctx, id)
}

func (r *SQLRepository) GetApplicationsByCitizenCtx(ctx context.Context, citizenID int64) ([]models.Application, error) {
	return r.db.GetApplicationsByCitizenCtx(ctx, citizenID)
}

func (r *SQLRepository) GetApplicationsFilteredCtx(ctx context.Context, status string, limit int, offset int) ([]models.ApplicationWithCitizen, int, error) {
	return r.db.GetApplicationsFilteredCtx(ctx, status, limit, offset)
}

func (r *SQLRepository) UpdateApplicationStatusCtx(ctx context.Context, id int64, status string, remarks *string, reviewerID *int) error {
	return r.db.UpdateApplicationStatusCtx(ctx, id, status, remarks, reviewerID)
}

func (r *SQLRepository) HasGrantForMilestoneCtx(ctx context.Context, citizenID int64, milestoneAge int) (bool, error) {
	return r.db.HasGrantForMilestoneCtx(ctx, citizenID, milestoneAge)
}

// StakeholderRepository methods
func (r *SQLRepository) GetStakeholdersCtx(ctx context.Context, activeOnly bool) ([]models.Stakeholder, error) {
	return r.db.GetStakeholdersCtx(ctx, activeOnly)
}

func (r *SQLRepository) GetStakeholderByIDCtx(ctx context.Context, id int64) (*models.Stakeholder, error) {
	return r.db.GetStakeholderByIDCtx(ctx, id)
}

func (r *SQLRepository) CreateStakeholderCtx(ctx context.Context, s *models.Stakeholder) (int64, error) {
	return r.db.CreateStakeholderCtx(ctx, s)
}

func (r *SQLRepository) UpdateStakeholderCtx(ctx context.Context, s *models.Stakeholder) error {
	return r.db.UpdateStakeholderCtx(ctx, s)
}

func (r *SQLRepository) DeactivateStakeholderCtx(ctx context.Context, id int64) error {
	return r.db.DeactivateStakeholderCtx(ctx, id)
}

// AuditLogRepository methods
func (r *SQLRepository) CreateAuditLogCtx(ctx context.Context, log *domain.RegistryAuditLog) error {
	return r.db.CreateAuditLogCtx(ctx, log)
}

func (r *SQLRepository) GetAuditLogsByCitizenCtx(ctx context.Context, citizenID int64) ([]domain.RegistryAuditLog, error) {
	return r.db.GetAuditLogsByCitizenCtx(ctx, citizenID)
}

func (r *SQLRepository) GetAuditLogsByAdminCtx(ctx context.Context, adminID int, limit int, offset int) ([]domain.RegistryAuditLog, int, error) {
	return r.db.GetAuditLogsByAdminCtx(ctx, adminID, limit, offset)
}

func (r *SQLRepository) GetAuditLogsPaginatedCtx(ctx context.Context, limit int, offset int) ([]domain.RegistryAuditLog, int, error) {
	return r.db.GetAuditLogsPaginatedCtx(ctx, limit, offset)
}

// FilterActiveBySpecCtx fetches active citizens and filters them using a Specification.
// Note: This applies the spec in-memory. For large datasets, consider adding SQL translations.
func (r *SQLRepository) FilterActiveBySpecCtx(ctx context.Context, s specs.Specification[models.Citizen]) ([]models.Citizen, error) {
	items, err := r.GetActiveCitizensCtx(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Citizen, 0, len(items))
	for _, c := range items {
		if s.IsSatisfiedBy(ctx, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

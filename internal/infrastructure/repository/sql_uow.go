package repository

import (
	"context"
	"database/sql"
	"fmt"

	"eca-system/internal/domain"
	"eca-system/internal/domain/specs"
	"eca-system/internal/models"
	"eca-system/pkg/database"
)

// SQLUnitOfWorkFactory starts SQL-backed UnitOfWork transactions.
type SQLUnitOfWorkFactory struct {
	db *database.DB
}

func NewSQLUnitOfWorkFactory(db *database.DB) *SQLUnitOfWorkFactory {
	return &SQLUnitOfWorkFactory{db: db}
}

// Ensure interface conformance
var _ domain.UnitOfWorkFactory = (*SQLUnitOfWorkFactory)(nil)

func (f *SQLUnitOfWorkFactory) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	tx, err := f.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("uow: begin tx: %w", err)
	}
	return &SQLUnitOfWork{db: f.db, tx: tx}, nil
}

// SQLUnitOfWork coordinates operations using a single *sql.Tx. Citizen writes
// and audit inserts go through the transaction; reads that do not need
// repeatable-read semantics are served from the pool.
type SQLUnitOfWork struct {
	db *database.DB
	tx *sql.Tx
	// simple guard to avoid double commit/rollback
	closed bool
}

var _ domain.UnitOfWork = (*SQLUnitOfWork)(nil)

func (u *SQLUnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}
	tx, err := u.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("uow: begin: %w", err)
	}
	u.tx = tx
	return nil
}

func (u *SQLUnitOfWork) Commit() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit()
}

func (u *SQLUnitOfWork) Rollback() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback()
}

// CitizenRepository methods. Row loads inside the transaction take locks so a
// concurrent merge of the same pair cannot interleave.
func (u *SQLUnitOfWork) GetCitizenByIDCtx(ctx context.Context, citizenID int64) (*models.Citizen, error) {
	if u.tx == nil {
		return nil, fmt.Errorf("uow: no active transaction for GetCitizenByIDCtx")
	}
	return u.db.GetCitizenByIDTx(ctx, u.tx, citizenID)
}

func (u *SQLUnitOfWork) CreateCitizenCtx(ctx context.Context, c *models.Citizen) (int64, error) {
	if u.tx == nil {
		return 0, fmt.Errorf("uow: no active transaction for CreateCitizenCtx")
	}
	return u.db.CreateCitizenTx(ctx, u.tx, c)
}

func (u *SQLUnitOfWork) UpdateCitizenCtx(ctx context.Context, c *models.Citizen) error {
	if u.tx == nil {
		return fmt.Errorf("uow: no active transaction for UpdateCitizenCtx")
	}
	return u.db.UpdateCitizenTx(ctx, u.tx, c)
}

func (u *SQLUnitOfWork) UpdateCitizenStatusCtx(ctx context.Context, citizenID int64, status string, mergedIntoID *int64) error {
	if u.tx == nil {
		return fmt.Errorf("uow: no active transaction for UpdateCitizenStatusCtx")
	}
	return u.db.UpdateCitizenStatusTx(ctx, u.tx, citizenID, status, mergedIntoID)
}

// Reads that only feed listings are served outside the tx.
func (u *SQLUnitOfWork) GetActiveCitizensCtx(ctx context.Context) ([]models.Citizen, error) {
	return u.db.GetActiveCitizensCtx(ctx)
}

func (u *SQLUnitOfWork) GetCitizensFilteredCtx(ctx context.Context, status string, search string, limit int, offset int) ([]models.Citizen, int, error) {
	return u.db.GetCitizensFilteredCtx(ctx, status, search, limit, offset)
}

func (u *SQLUnitOfWork) GetRegistryStatsCtx(ctx context.Context) (*models.RegistryStats, error) {
	return u.db.GetRegistryStatsCtx(ctx)
}

func (u *SQLUnitOfWork) FilterActiveBySpecCtx(ctx context.Context, s specs.Specification[models.Citizen]) ([]models.Citizen, error) {
	items, err := u.db.GetActiveCitizensCtx(ctx)
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

// AuditLogRepository methods (writes via tx)
func (u *SQLUnitOfWork) CreateAuditLogCtx(ctx context.Context, log *domain.RegistryAuditLog) error {
	if u.tx == nil {
		return fmt.Errorf("uow: no active transaction for CreateAuditLogCtx")
	}
	return u.db.CreateAuditLogTx(ctx, u.tx, log)
}

func (u *SQLUnitOfWork) GetAuditLogsByCitizenCtx(ctx context.Context, citizenID int64) ([]domain.RegistryAuditLog, error) {
	return u.db.GetAuditLogsByCitizenCtx(ctx, citizenID)
}

func (u *SQLUnitOfWork) GetAuditLogsByAdminCtx(ctx context.Context, adminID int, limit int, offset int) ([]domain.RegistryAuditLog, int, error) {
	return u.db.GetAuditLogsByAdminCtx(ctx, adminID, limit, offset)
}

func (u *SQLUnitOfWork) GetAuditLogsPaginatedCtx(ctx context.Context, limit int, offset int) ([]domain.RegistryAuditLog, int, error) {
	return u.db.GetAuditLogsPaginatedCtx(ctx, limit, offset)
}

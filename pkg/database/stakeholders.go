package database

import (
	"context"
	"database/sql"

	"eca-system/internal/models"
	errs "eca-system/pkg/errors"
)

const stakeholderColumns = `id, name, role, organization, barangay, contact_number, email, active, created_at, updated_at`

func scanStakeholder(row rowScanner) (*models.Stakeholder, error) {
	var s models.Stakeholder
	err := row.Scan(
		&s.ID, &s.Name, &s.Role, &s.Organization, &s.Barangay,
		&s.ContactNumber, &s.Email, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) GetStakeholdersCtx(ctx context.Context, activeOnly bool) ([]models.Stakeholder, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + stakeholderColumns + ` FROM stakeholders`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.NewDB("GetStakeholdersCtx", "failed to query stakeholders", err)
	}
	defer rows.Close()

	var out []models.Stakeholder
	for rows.Next() {
		s, err := scanStakeholder(rows)
		if err != nil {
			return nil, errs.NewDB("GetStakeholdersCtx", "failed to scan stakeholder", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (db *DB) GetStakeholderByIDCtx(ctx context.Context, id int64) (*models.Stakeholder, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + stakeholderColumns + ` FROM stakeholders WHERE id = ?`
	s, err := scanStakeholder(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errs.NewNotFound("GetStakeholderByIDCtx", "stakeholder", id)
	}
	if err != nil {
		return nil, errs.NewDB("GetStakeholderByIDCtx", "failed to query stakeholder", err)
	}
	return s, nil
}

func (db *DB) CreateStakeholderCtx(ctx context.Context, s *models.Stakeholder) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	query := `INSERT INTO stakeholders
	          (name, role, organization, barangay, contact_number, email, active, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`
	res, err := db.conn.ExecContext(ctx, query,
		s.Name, s.Role, s.Organization, s.Barangay, s.ContactNumber, s.Email, s.Active,
	)
	if err != nil {
		return 0, errs.NewDB("CreateStakeholderCtx", "failed to insert stakeholder", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.NewDB("CreateStakeholderCtx", "failed to get last insert ID", err)
	}
	s.ID = id
	return id, nil
}

func (db *DB) UpdateStakeholderCtx(ctx context.Context, s *models.Stakeholder) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	query := `UPDATE stakeholders SET name = ?, role = ?, organization = ?, barangay = ?,
	          contact_number = ?, email = ?, active = ?, updated_at = NOW()
	          WHERE id = ?`
	res, err := db.conn.ExecContext(ctx, query,
		s.Name, s.Role, s.Organization, s.Barangay, s.ContactNumber, s.Email, s.Active, s.ID,
	)
	if err != nil {
		return errs.NewDB("UpdateStakeholderCtx", "failed to update stakeholder", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NewNotFound("UpdateStakeholderCtx", "stakeholder", s.ID)
	}
	return nil
}

func (db *DB) DeactivateStakeholderCtx(ctx context.Context, id int64) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE stakeholders SET active = 0, updated_at = NOW() WHERE id = ?`, id)
	if err != nil {
		return errs.NewDB("DeactivateStakeholderCtx", "failed to deactivate stakeholder", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NewNotFound("DeactivateStakeholderCtx", "stakeholder", id)
	}
	return nil
}

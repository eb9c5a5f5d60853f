package database

import (
	"context"
	"database/sql"

	"eca-system/internal/models"
	errs "eca-system/pkg/errors"
)

const applicationColumns = `id, citizen_id, milestone_age, status, amount_php, remarks,
	filed_by_id, reviewed_by_id, filed_at, reviewed_at, released_at`

func scanApplication(row rowScanner) (*models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID, &a.CitizenID, &a.MilestoneAge, &a.Status, &a.AmountPHP, &a.Remarks,
		&a.FiledByID, &a.ReviewedByID, &a.FiledAt, &a.ReviewedAt, &a.ReleasedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) CreateApplicationCtx(ctx context.Context, a *models.Application) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	query := `INSERT INTO applications
	          (citizen_id, milestone_age, status, amount_php, remarks, filed_by_id, filed_at)
	          VALUES (?, ?, ?, ?, ?, ?, NOW())`
	res, err := db.conn.ExecContext(ctx, query,
		a.CitizenID, a.MilestoneAge, a.Status, a.AmountPHP, a.Remarks, a.FiledByID,
	)
	if err != nil {
		return 0, errs.NewDB("CreateApplicationCtx", "failed to insert application", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.NewDB("CreateApplicationCtx", "failed to get last insert ID", err)
	}
	a.ID = id
	return id, nil
}

func (db *DB) GetApplicationByIDCtx(ctx context.Context, id int64) (*models.Application, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`
	a, err := scanApplication(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errs.NewNotFound("GetApplicationByIDCtx", "application", id)
	}
	if err != nil {
		return nil, errs.NewDB("GetApplicationByIDCtx", "failed to query application", err)
	}
	return a, nil
}

func (db *DB) GetApplicationsByCitizenCtx(ctx context.Context, citizenID int64) ([]models.Application, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE citizen_id = ? ORDER BY milestone_age`
	rows, err := db.conn.QueryContext(ctx, query, citizenID)
	if err != nil {
		return nil, errs.NewDB("GetApplicationsByCitizenCtx", "failed to query applications", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, errs.NewDB("GetApplicationsByCitizenCtx", "failed to scan application", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// GetApplicationsFilteredCtx joins applications with their citizens for the
// review queue. Status filters, newest first, plus the unpaged total.
func (db *DB) GetApplicationsFilteredCtx(ctx context.Context, status string, limit, offset int) ([]models.ApplicationWithCitizen, int, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	where := ""
	var args []any
	if status != "" {
		where = " WHERE a.status = ?"
		args = append(args, status)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM applications a"+where, args...).Scan(&total); err != nil {
		return nil, 0, errs.NewDB("GetApplicationsFilteredCtx", "failed to count applications", err)
	}

	query := `SELECT
		a.id, a.citizen_id, a.milestone_age, a.status, a.amount_php, a.remarks,
		a.filed_by_id, a.reviewed_by_id, a.filed_at, a.reviewed_at, a.released_at,
		c.id, c.reference_no, c.last_name, c.first_name, c.middle_name, c.extension_name,
		c.birth_date, c.sex, c.civil_status, c.barangay, c.address, c.contact_number, c.osca_id,
		c.status, c.merged_into_id, c.registered_by, c.created_at, c.updated_at
		FROM applications a
		JOIN citizens c ON c.id = a.citizen_id` + where + `
		ORDER BY a.filed_at DESC, a.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errs.NewDB("GetApplicationsFilteredCtx", "failed to query applications", err)
	}
	defer rows.Close()

	var out []models.ApplicationWithCitizen
	for rows.Next() {
		var ac models.ApplicationWithCitizen
		a := &ac.Application
		c := &ac.Citizen
		err := rows.Scan(
			&a.ID, &a.CitizenID, &a.MilestoneAge, &a.Status, &a.AmountPHP, &a.Remarks,
			&a.FiledByID, &a.ReviewedByID, &a.FiledAt, &a.ReviewedAt, &a.ReleasedAt,
			&c.ID, &c.ReferenceNo, &c.LastName, &c.FirstName, &c.MiddleName, &c.ExtensionName,
			&c.BirthDate, &c.Sex, &c.CivilStatus, &c.Barangay, &c.Address, &c.ContactNumber, &c.OSCAID,
			&c.Status, &c.MergedIntoID, &c.RegisteredBy, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errs.NewDB("GetApplicationsFilteredCtx", "failed to scan application", err)
		}
		out = append(out, ac)
	}
	return out, total, rows.Err()
}

// UpdateApplicationStatusCtx moves an application through the workflow and
// stamps review/release times as appropriate.
func (db *DB) UpdateApplicationStatusCtx(ctx context.Context, id int64, status string, remarks *string, reviewerID *int) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	query := `UPDATE applications SET status = ?,
	          remarks = COALESCE(?, remarks),
	          reviewed_by_id = COALESCE(?, reviewed_by_id),
	          reviewed_at = NOW(),
	          released_at = CASE WHEN ? = 'released' THEN NOW() ELSE released_at END
	          WHERE id = ?`
	res, err := db.conn.ExecContext(ctx, query, status, remarks, reviewerID, status, id)
	if err != nil {
		return errs.NewDB("UpdateApplicationStatusCtx", "failed to update application status", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NewNotFound("UpdateApplicationStatusCtx", "application", id)
	}
	return nil
}

// HasGrantForMilestoneCtx reports whether a citizen already has a non-rejected
// application for the milestone; the one-grant-per-milestone rule.
func (db *DB) HasGrantForMilestoneCtx(ctx context.Context, citizenID int64, milestoneAge int) (bool, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM applications
	          WHERE citizen_id = ? AND milestone_age = ? AND status <> ?`
	var n int
	if err := db.conn.QueryRowContext(ctx, query, citizenID, milestoneAge, models.ApplicationStatusRejected).Scan(&n); err != nil {
		return false, errs.NewDB("HasGrantForMilestoneCtx", "failed to count applications", err)
	}
	return n > 0, nil
}

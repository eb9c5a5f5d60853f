package database

import (
	"context"
	"database/sql"

	"eca-system/internal/domain"
	errs "eca-system/pkg/errors"
)

// CreateAuditLogCtx inserts a new audit log entry.
func (db *DB) CreateAuditLogCtx(ctx context.Context, log *domain.RegistryAuditLog) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	result, err := db.stmts["insertAuditLog"].ExecContext(ctx,
		log.CitizenID, log.AdminID, log.Action, log.Detail, log.CreatedAt,
	)
	if err != nil {
		return errs.NewDB("CreateAuditLogCtx", "failed to insert audit log", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errs.NewDB("CreateAuditLogCtx", "failed to get last insert ID", err)
	}
	log.ID = id
	return nil
}

// CreateAuditLogTx inserts an audit entry within an existing transaction.
func (db *DB) CreateAuditLogTx(ctx context.Context, tx *sql.Tx, log *domain.RegistryAuditLog) error {
	query := `INSERT INTO registry_audit_logs (citizen_id, admin_id, action, detail, created_at)
	          VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		log.CitizenID, log.AdminID, log.Action, log.Detail, log.CreatedAt,
	)
	if err != nil {
		return errs.NewDB("CreateAuditLogTx", "failed to insert audit log", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errs.NewDB("CreateAuditLogTx", "failed to get last insert ID", err)
	}
	log.ID = id
	return nil
}

const auditColumns = `id, citizen_id, admin_id, action, detail, created_at`

func scanAuditLog(row rowScanner) (*domain.RegistryAuditLog, error) {
	var l domain.RegistryAuditLog
	err := row.Scan(&l.ID, &l.CitizenID, &l.AdminID, &l.Action, &l.Detail, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetAuditLogsByCitizenCtx retrieves all audit entries for a citizen, newest first.
func (db *DB) GetAuditLogsByCitizenCtx(ctx context.Context, citizenID int64) ([]domain.RegistryAuditLog, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + auditColumns + ` FROM registry_audit_logs
	          WHERE citizen_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.conn.QueryContext(ctx, query, citizenID)
	if err != nil {
		return nil, errs.NewDB("GetAuditLogsByCitizenCtx", "failed to query audit logs", err)
	}
	defer rows.Close()

	return collectAuditLogs(rows, "GetAuditLogsByCitizenCtx")
}

// GetAuditLogsByAdminCtx retrieves a page of entries recorded by one admin.
func (db *DB) GetAuditLogsByAdminCtx(ctx context.Context, adminID int, limit, offset int) ([]domain.RegistryAuditLog, int, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registry_audit_logs WHERE admin_id = ?`, adminID).Scan(&total); err != nil {
		return nil, 0, errs.NewDB("GetAuditLogsByAdminCtx", "failed to count audit logs", err)
	}

	query := `SELECT ` + auditColumns + ` FROM registry_audit_logs
	          WHERE admin_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, adminID, limit, offset)
	if err != nil {
		return nil, 0, errs.NewDB("GetAuditLogsByAdminCtx", "failed to query audit logs", err)
	}
	defer rows.Close()

	logs, err := collectAuditLogs(rows, "GetAuditLogsByAdminCtx")
	return logs, total, err
}

// GetAuditLogsPaginatedCtx retrieves a page across all citizens, newest first.
func (db *DB) GetAuditLogsPaginatedCtx(ctx context.Context, limit, offset int) ([]domain.RegistryAuditLog, int, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM registry_audit_logs`).Scan(&total); err != nil {
		return nil, 0, errs.NewDB("GetAuditLogsPaginatedCtx", "failed to count audit logs", err)
	}

	query := `SELECT ` + auditColumns + ` FROM registry_audit_logs
	          ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errs.NewDB("GetAuditLogsPaginatedCtx", "failed to query audit logs", err)
	}
	defer rows.Close()

	logs, err := collectAuditLogs(rows, "GetAuditLogsPaginatedCtx")
	return logs, total, err
}

func collectAuditLogs(rows *sql.Rows, op string) ([]domain.RegistryAuditLog, error) {
	var logs []domain.RegistryAuditLog
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, errs.NewDB(op, "failed to scan audit log", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

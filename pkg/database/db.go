// Package database is the MySQL access layer for the registry. Queries use
// context timeouts, hot-path inserts use prepared statements, and merge flows
// get Tx variants so they can run under one transaction.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"eca-system/internal/constants"
	"eca-system/internal/models"
	"eca-system/pkg/config"
	errs "eca-system/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

type DB struct {
	conn         *sql.DB
	stmts        map[string]*sql.Stmt
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("mysql", databaseURL)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(15)
	conn.SetConnMaxLifetime(10 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{
		conn:         conn,
		stmts:        make(map[string]*sql.Stmt),
		readTimeout:  constants.DBReadTimeoutDefault,
		writeTimeout: constants.DBWriteTimeoutDefault,
	}

	if err := db.prepareStatements(); err != nil {
		return nil, errs.NewDB("database.New", "failed to prepare statements", err)
	}

	return db, nil
}

// NewWithConfig creates a database connection with custom pool settings.
func NewWithConfig(databaseURL string, cfg *config.Config) (*DB, error) {
	conn, err := sql.Open("mysql", databaseURL)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	rt := cfg.DBReadTimeout
	if rt == 0 {
		rt = constants.DBReadTimeoutDefault
	}
	wt := cfg.DBWriteTimeout
	if wt == 0 {
		wt = constants.DBWriteTimeoutDefault
	}

	db := &DB{
		conn:         conn,
		stmts:        make(map[string]*sql.Stmt),
		readTimeout:  rt,
		writeTimeout: wt,
	}

	if err := db.prepareStatements(); err != nil {
		return nil, errs.NewDB("database.NewWithConfig", "failed to prepare statements", err)
	}

	return db, nil
}

// prepareStatements prepares the hot-path writes used on every registration.
func (db *DB) prepareStatements() error {
	statements := map[string]string{
		"insertCitizen": `INSERT INTO citizens
		                  (reference_no, last_name, first_name, middle_name, extension_name, birth_date,
		                   sex, civil_status, barangay, address, contact_number, osca_id, status,
		                   registered_by, created_at, updated_at)
		                  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		"updateCitizenStatus": `UPDATE citizens SET status = ?, merged_into_id = ?, updated_at = NOW()
		                        WHERE id = ?`,
		"insertAuditLog": `INSERT INTO registry_audit_logs (citizen_id, admin_id, action, detail, created_at)
		                   VALUES (?, ?, ?, ?, ?)`,
	}

	for name, query := range statements {
		stmt, err := db.conn.Prepare(query)
		if err != nil {
			return errs.NewDB("database.prepareStatements", fmt.Sprintf("failed to prepare statement %s", name), err)
		}
		db.stmts[name] = stmt
	}

	return nil
}

// Close closes database connection and prepared statements
func (db *DB) Close() error {
	for _, stmt := range db.stmts {
		stmt.Close()
	}
	return db.conn.Close()
}

// Conn exposes the raw connection for transactions and auxiliary stores.
func (db *DB) Conn() *sql.DB { return db.conn }

// PingCtx checks connectivity; used by the health endpoint.
func (db *DB) PingCtx(ctx context.Context) error {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// withReadTimeout creates a context with standard read timeout.
func (db *DB) withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.readTimeout)
}

// withWriteTimeout creates a context with standard write timeout.
func (db *DB) withWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.writeTimeout)
}

const citizenColumns = `id, reference_no, last_name, first_name, middle_name, extension_name,
	birth_date, sex, civil_status, barangay, address, contact_number, osca_id,
	status, merged_into_id, registered_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCitizen(row rowScanner) (*models.Citizen, error) {
	var c models.Citizen
	err := row.Scan(
		&c.ID, &c.ReferenceNo, &c.LastName, &c.FirstName, &c.MiddleName, &c.ExtensionName,
		&c.BirthDate, &c.Sex, &c.CivilStatus, &c.Barangay, &c.Address, &c.ContactNumber, &c.OSCAID,
		&c.Status, &c.MergedIntoID, &c.RegisteredBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActiveCitizensCtx returns every active citizen, the scan worker's input.
func (db *DB) GetActiveCitizensCtx(ctx context.Context) ([]models.Citizen, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE status = ? ORDER BY id`
	rows, err := db.conn.QueryContext(ctx, query, models.CitizenStatusActive)
	if err != nil {
		return nil, errs.NewDB("GetActiveCitizensCtx", "failed to query citizens", err)
	}
	defer rows.Close()

	var citizens []models.Citizen
	for rows.Next() {
		c, err := scanCitizen(rows)
		if err != nil {
			return nil, errs.NewDB("GetActiveCitizensCtx", "failed to scan citizen", err)
		}
		citizens = append(citizens, *c)
	}
	return citizens, rows.Err()
}

// GetCitizensFilteredCtx returns a page of citizens plus the unpaged total.
// Search matches name fields and the OSCA ID.
func (db *DB) GetCitizensFilteredCtx(ctx context.Context, status, search string, limit, offset int) ([]models.Citizen, int, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var conds []string
	var args []any
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if search != "" {
		like := "%" + search + "%"
		conds = append(conds, "(last_name LIKE ? OR first_name LIKE ? OR middle_name LIKE ? OR osca_id LIKE ?)")
		args = append(args, like, like, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM citizens"+where, args...).Scan(&total); err != nil {
		return nil, 0, errs.NewDB("GetCitizensFilteredCtx", "failed to count citizens", err)
	}

	query := `SELECT ` + citizenColumns + ` FROM citizens` + where + ` ORDER BY last_name, first_name, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errs.NewDB("GetCitizensFilteredCtx", "failed to query citizens", err)
	}
	defer rows.Close()

	var citizens []models.Citizen
	for rows.Next() {
		c, err := scanCitizen(rows)
		if err != nil {
			return nil, 0, errs.NewDB("GetCitizensFilteredCtx", "failed to scan citizen", err)
		}
		citizens = append(citizens, *c)
	}
	return citizens, total, rows.Err()
}

func (db *DB) GetCitizenByIDCtx(ctx context.Context, citizenID int64) (*models.Citizen, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE id = ?`
	c, err := scanCitizen(db.conn.QueryRowContext(ctx, query, citizenID))
	if err == sql.ErrNoRows {
		return nil, errs.NewNotFound("GetCitizenByIDCtx", "citizen", citizenID)
	}
	if err != nil {
		return nil, errs.NewDB("GetCitizenByIDCtx", "failed to query citizen", err)
	}
	return c, nil
}

// CreateCitizenCtx inserts a citizen and returns the assigned ID.
func (db *DB) CreateCitizenCtx(ctx context.Context, c *models.Citizen) (int64, error) {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	res, err := db.stmts["insertCitizen"].ExecContext(ctx,
		c.ReferenceNo, c.LastName, c.FirstName, c.MiddleName, c.ExtensionName, c.BirthDate,
		c.Sex, c.CivilStatus, c.Barangay, c.Address, c.ContactNumber, c.OSCAID, c.Status,
		c.RegisteredBy,
	)
	if err != nil {
		return 0, errs.NewDB("CreateCitizenCtx", "failed to insert citizen", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.NewDB("CreateCitizenCtx", "failed to get last insert ID", err)
	}
	c.ID = id
	return id, nil
}

func (db *DB) UpdateCitizenCtx(ctx context.Context, c *models.Citizen) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	query := `UPDATE citizens SET last_name = ?, first_name = ?, middle_name = ?, extension_name = ?,
	          birth_date = ?, sex = ?, civil_status = ?, barangay = ?, address = ?, contact_number = ?,
	          osca_id = ?, updated_at = NOW()
	          WHERE id = ?`
	_, err := db.conn.ExecContext(ctx, query,
		c.LastName, c.FirstName, c.MiddleName, c.ExtensionName,
		c.BirthDate, c.Sex, c.CivilStatus, c.Barangay, c.Address, c.ContactNumber,
		c.OSCAID, c.ID,
	)
	if err != nil {
		return errs.NewDB("UpdateCitizenCtx", "failed to update citizen", err)
	}
	return nil
}

func (db *DB) UpdateCitizenStatusCtx(ctx context.Context, citizenID int64, status string, mergedIntoID *int64) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	if _, err := db.stmts["updateCitizenStatus"].ExecContext(ctx, status, mergedIntoID, citizenID); err != nil {
		return errs.NewDB("UpdateCitizenStatusCtx", "failed to update citizen status", err)
	}
	return nil
}

// GetRegistryStatsCtx feeds the dashboard counters in one round trip per table.
func (db *DB) GetRegistryStatsCtx(ctx context.Context) (*models.RegistryStats, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var stats models.RegistryStats
	citizenQuery := `SELECT
		COUNT(*),
		COALESCE(SUM(status = 'active'), 0),
		COALESCE(SUM(status = 'merged'), 0)
		FROM citizens`
	if err := db.conn.QueryRowContext(ctx, citizenQuery).Scan(
		&stats.Citizens, &stats.ActiveCitizens, &stats.MergedCitizens,
	); err != nil {
		return nil, errs.NewDB("GetRegistryStatsCtx", "failed to count citizens", err)
	}

	appQuery := `SELECT
		COALESCE(SUM(status = 'pending'), 0),
		COALESCE(SUM(status = 'approved'), 0),
		COALESCE(SUM(status = 'released'), 0),
		COALESCE(SUM(status = 'rejected'), 0)
		FROM applications`
	if err := db.conn.QueryRowContext(ctx, appQuery).Scan(
		&stats.PendingApplications, &stats.ApprovedApplications,
		&stats.ReleasedApplications, &stats.RejectedApplications,
	); err != nil {
		return nil, errs.NewDB("GetRegistryStatsCtx", "failed to count applications", err)
	}

	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stakeholders WHERE active = 1`).Scan(&stats.Stakeholders); err != nil {
		return nil, errs.NewDB("GetRegistryStatsCtx", "failed to count stakeholders", err)
	}

	return &stats, nil
}

// --- Transaction variants, used by the unit of work ---

func (db *DB) GetCitizenByIDTx(ctx context.Context, tx *sql.Tx, citizenID int64) (*models.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE id = ? FOR UPDATE`
	c, err := scanCitizen(tx.QueryRowContext(ctx, query, citizenID))
	if err == sql.ErrNoRows {
		return nil, errs.NewNotFound("GetCitizenByIDTx", "citizen", citizenID)
	}
	if err != nil {
		return nil, errs.NewDB("GetCitizenByIDTx", "failed to query citizen", err)
	}
	return c, nil
}

func (db *DB) UpdateCitizenTx(ctx context.Context, tx *sql.Tx, c *models.Citizen) error {
	query := `UPDATE citizens SET last_name = ?, first_name = ?, middle_name = ?, extension_name = ?,
	          birth_date = ?, sex = ?, civil_status = ?, barangay = ?, address = ?, contact_number = ?,
	          osca_id = ?, updated_at = NOW()
	          WHERE id = ?`
	_, err := tx.ExecContext(ctx, query,
		c.LastName, c.FirstName, c.MiddleName, c.ExtensionName,
		c.BirthDate, c.Sex, c.CivilStatus, c.Barangay, c.Address, c.ContactNumber,
		c.OSCAID, c.ID,
	)
	if err != nil {
		return errs.NewDB("UpdateCitizenTx", "failed to update citizen", err)
	}
	return nil
}

func (db *DB) UpdateCitizenStatusTx(ctx context.Context, tx *sql.Tx, citizenID int64, status string, mergedIntoID *int64) error {
	query := `UPDATE citizens SET status = ?, merged_into_id = ?, updated_at = NOW() WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, status, mergedIntoID, citizenID); err != nil {
		return errs.NewDB("UpdateCitizenStatusTx", "failed to update citizen status", err)
	}
	return nil
}

func (db *DB) CreateCitizenTx(ctx context.Context, tx *sql.Tx, c *models.Citizen) (int64, error) {
	query := `INSERT INTO citizens
	          (reference_no, last_name, first_name, middle_name, extension_name, birth_date,
	           sex, civil_status, barangay, address, contact_number, osca_id, status,
	           registered_by, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`
	res, err := tx.ExecContext(ctx, query,
		c.ReferenceNo, c.LastName, c.FirstName, c.MiddleName, c.ExtensionName, c.BirthDate,
		c.Sex, c.CivilStatus, c.Barangay, c.Address, c.ContactNumber, c.OSCAID, c.Status,
		c.RegisteredBy,
	)
	if err != nil {
		return 0, errs.NewDB("CreateCitizenTx", "failed to insert citizen", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.NewDB("CreateCitizenTx", "failed to get last insert ID", err)
	}
	c.ID = id
	return id, nil
}

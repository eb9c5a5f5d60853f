package events

import (
	"context"
	"database/sql"
	"fmt"

	"eca-system/pkg/database"
)

// SQLEventStore stores events in a SQL table with ordered IDs.
// Table schema:
// CREATE TABLE IF NOT EXISTS citizen_events (
//   id BIGINT AUTO_INCREMENT PRIMARY KEY,
//   citizen_id BIGINT NOT NULL,
//   type VARCHAR(64) NOT NULL,
//   at DATETIME(6) NOT NULL,
//   admin_id INT NULL,
//   data JSON NOT NULL,
//   KEY idx_citizen_id (citizen_id),
//   KEY idx_citizen_time (citizen_id, id)
// );
// NOTE: JSON may be emulated as LONGTEXT on older MySQL variants.

type SQLEventStore struct {
	db *database.DB
}

func NewSQLEventStore(db *database.DB) (*SQLEventStore, error) {
	s := &SQLEventStore{db: db}
	if err := s.ensureTable(); err != nil {
		return nil, fmt.Errorf("events: ensure table: %w", err)
	}
	return s, nil
}

var _ EventStore = (*SQLEventStore)(nil)

func (s *SQLEventStore) ensureTable() error {
	qry := `CREATE TABLE IF NOT EXISTS citizen_events (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		citizen_id BIGINT NOT NULL,
		type VARCHAR(64) NOT NULL,
		at DATETIME(6) NOT NULL,
		admin_id INT NULL,
		data JSON NOT NULL,
		KEY idx_citizen_id (citizen_id),
		KEY idx_citizen_time (citizen_id, id)
	)`
	_, err := s.db.Conn().Exec(qry)
	return err
}

func (s *SQLEventStore) Append(ctx context.Context, e Event) error {
	payload, err := e.MarshalData()
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}
	_, err = s.db.Conn().ExecContext(ctx,
		`INSERT INTO citizen_events (citizen_id, type, at, admin_id, data) VALUES (?,?,?,?,?)`,
		e.CitizenID(), e.Type(), e.Timestamp(), e.AdminID(), string(payload))
	if err != nil {
		return fmt.Errorf("events: insert: %w", err)
	}
	return nil
}

func (s *SQLEventStore) ListByCitizen(ctx context.Context, citizenID int64) ([]StoredEvent, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, citizen_id, type, at, admin_id, data FROM citizen_events WHERE citizen_id = ? ORDER BY id ASC`,
		citizenID)
	if err != nil {
		return nil, fmt.Errorf("events: query: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var se StoredEvent
		var adminID sql.NullInt64
		var data string
		if err := rows.Scan(&se.Seq, &se.CitizenID, &se.Type, &se.Ts, &adminID, &data); err != nil {
			return nil, fmt.Errorf("events: scan: %w", err)
		}
		if adminID.Valid {
			v := int(adminID.Int64)
			se.AdminID = &v
		}
		se.Payload = []byte(data)
		out = append(out, se)
	}
	return out, rows.Err()
}

func (s *SQLEventStore) ReplayCitizen(ctx context.Context, citizenID int64) (*RebuiltState, error) {
	stored, err := s.ListByCitizen(ctx, citizenID)
	if err != nil {
		return nil, err
	}
	return Replay(stored), nil
}

package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the base interface for registry audit events.
// Keep payloads small, use JSON-friendly fields.
type Event interface {
	Type() string
	CitizenID() int64
	Timestamp() time.Time
	AdminID() *int
	MarshalData() ([]byte, error)
}

// Base contains common event metadata.
type Base struct {
	Ts  time.Time `json:"ts"`
	CID int64     `json:"citizen_id"`
	Adm *int      `json:"admin_id,omitempty"`
}

func (b Base) Timestamp() time.Time { return b.Ts }
func (b Base) CitizenID() int64     { return b.CID }
func (b Base) AdminID() *int        { return b.Adm }

// --- Concrete events ---

const (
	TypeCitizenRegistered = "citizen.registered"
	TypeCitizenUpdated    = "citizen.updated"
	TypeDuplicateDetected = "citizen.duplicate.detected"
	TypeDuplicateResolved = "citizen.duplicate.resolved"
	TypeApplicationStatus = "application.status_changed"
)

// CitizenRegistered is emitted when a double-entry verified record lands.
type CitizenRegistered struct {
	Base
	ReferenceNo string `json:"reference_no"`
	Forced      bool   `json:"forced"` // operator overrode a duplicate prompt
}

func (e CitizenRegistered) Type() string                 { return TypeCitizenRegistered }
func (e CitizenRegistered) MarshalData() ([]byte, error) { return json.Marshal(e) }

// CitizenUpdated captures a field-level edit outside the merge flow.
type CitizenUpdated struct {
	Base
	Fields []string `json:"fields,omitempty"`
}

func (e CitizenUpdated) Type() string                 { return TypeCitizenUpdated }
func (e CitizenUpdated) MarshalData() ([]byte, error) { return json.Marshal(e) }

// DuplicateDetected records a scan or entry-time hit against another record.
type DuplicateDetected struct {
	Base
	OtherID       int64    `json:"other_id"`
	MatchedFields []string `json:"matched_fields"`
	Confidence    float64  `json:"confidence"`
	Source        string   `json:"source"` // scan|entry
}

func (e DuplicateDetected) Type() string                 { return TypeDuplicateDetected }
func (e DuplicateDetected) MarshalData() ([]byte, error) { return json.Marshal(e) }

// DuplicateResolved records the operator decision on a candidate pair.
// Decision is one of keep_both, merged, created_new.
type DuplicateResolved struct {
	Base
	OtherID  int64  `json:"other_id"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

func (e DuplicateResolved) Type() string                 { return TypeDuplicateResolved }
func (e DuplicateResolved) MarshalData() ([]byte, error) { return json.Marshal(e) }

// ApplicationStatusChanged records a cash-gift workflow transition.
type ApplicationStatusChanged struct {
	Base
	ApplicationID int64   `json:"application_id"`
	MilestoneAge  int     `json:"milestone_age"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	AmountPHP     float64 `json:"amount_php,omitempty"`
}

func (e ApplicationStatusChanged) Type() string                 { return TypeApplicationStatus }
func (e ApplicationStatusChanged) MarshalData() ([]byte, error) { return json.Marshal(e) }

// EventStore defines persistence and replay.
// Implementations must guarantee ordering per citizen.
type EventStore interface {
	Append(ctx context.Context, e Event) error
	ListByCitizen(ctx context.Context, citizenID int64) ([]StoredEvent, error)
	ReplayCitizen(ctx context.Context, citizenID int64) (*RebuiltState, error)
}

// StoredEvent is a durable representation.
// Seq is a monotonic order within the DB (BIGINT AUTO_INCREMENT).
type StoredEvent struct {
	Seq       int64     `json:"seq"`
	CitizenID int64     `json:"citizen_id"`
	Type      string    `json:"type"`
	Ts        time.Time `json:"ts"`
	AdminID   *int      `json:"admin_id,omitempty"`
	Payload   []byte    `json:"payload"` // original JSON
}

// RebuiltState is the result of replay for a citizen: current registry
// standing plus last duplicate decision. UIs can still show the full history
// by listing events.
type RebuiltState struct {
	CitizenID       int64      `json:"citizen_id"`
	Registered      bool       `json:"registered"`
	MergedInto      *int64     `json:"merged_into,omitempty"`
	OpenDuplicates  int        `json:"open_duplicates"`
	LastDecision    string     `json:"last_decision,omitempty"`
	LastApplication string     `json:"last_application,omitempty"`
	LastUpdated     time.Time  `json:"last_updated"`
	RegisteredAt    *time.Time `json:"registered_at,omitempty"`
}

// Replay applies events in order and rebuilds state.
func Replay(stored []StoredEvent) *RebuiltState {
	st := &RebuiltState{}
	for _, se := range stored {
		st.CitizenID = se.CitizenID
		st.LastUpdated = se.Ts
		switch se.Type {
		case TypeCitizenRegistered:
			st.Registered = true
			at := se.Ts
			st.RegisteredAt = &at
		case TypeDuplicateDetected:
			st.OpenDuplicates++
		case TypeDuplicateResolved:
			var ev DuplicateResolved
			_ = json.Unmarshal(se.Payload, &ev)
			st.LastDecision = ev.Decision
			if st.OpenDuplicates > 0 {
				st.OpenDuplicates--
			}
			if ev.Decision == "merged" {
				other := ev.OtherID
				st.MergedInto = &other
			}
		case TypeApplicationStatus:
			var ev ApplicationStatusChanged
			_ = json.Unmarshal(se.Payload, &ev)
			st.LastApplication = ev.To
		}
	}
	return st
}

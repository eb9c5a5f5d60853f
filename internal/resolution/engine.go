// Package resolution applies operator decisions to duplicate candidate pairs.
// A pair surfaced by the similarity engine is never resolved automatically:
// an administrator either keeps both records or merges the duplicate into a
// survivor, and every outcome leaves an audit trail.
package resolution

import (
	"context"
	"fmt"
	"time"

	"eca-system/internal/domain"
	"eca-system/internal/models"
	"eca-system/pkg/events"
	errs "eca-system/pkg/errors"
)

// Decisions an operator can take on a candidate pair.
const (
	DecisionKeepBoth = "keep_both"
	DecisionMerged   = "merged"
)

// Engine executes pair resolutions. Merges run inside a unit of work because
// they touch two citizen rows plus audit entries and must land atomically.
type Engine struct {
	uowFactory domain.UnitOfWorkFactory
	eventStore events.EventStore
	now        func() time.Time
}

// NewEngine creates a resolution engine. The event store is optional; when
// nil, decisions are still audited through the repository only.
func NewEngine(factory domain.UnitOfWorkFactory, es events.EventStore) *Engine {
	return &Engine{
		uowFactory: factory,
		eventStore: es,
		now:        time.Now,
	}
}

// Outcome describes a completed resolution.
type Outcome struct {
	Decision   string          `json:"decision"`
	Survivor   *models.Citizen `json:"survivor,omitempty"`
	Duplicate  *models.Citizen `json:"duplicate,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// KeepBoth records that the pair was reviewed and both records are distinct
// people. Both citizens get an audit entry so a later scan hit on the same
// pair can be traced back to this decision.
func (e *Engine) KeepBoth(ctx context.Context, citizenAID, citizenBID int64, adminID int, reason string) (*Outcome, error) {
	if citizenAID == citizenBID {
		return nil, errs.NewValidation("resolution.KeepBoth", fmt.Sprintf("pair must reference two distinct citizens, got %d twice", citizenAID), nil)
	}
	if adminID <= 0 {
		return nil, errs.NewValidation("resolution.KeepBoth", "keep-both requires an acting admin", nil)
	}

	uow, err := e.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolution: begin: %w", err)
	}
	defer uow.Rollback()

	a, err := uow.GetCitizenByIDCtx(ctx, citizenAID)
	if err != nil {
		return nil, fmt.Errorf("resolution: load citizen %d: %w", citizenAID, err)
	}
	b, err := uow.GetCitizenByIDCtx(ctx, citizenBID)
	if err != nil {
		return nil, fmt.Errorf("resolution: load citizen %d: %w", citizenBID, err)
	}

	detail := fmt.Sprintf(`{"other_id":%d,"reason":%q}`, citizenBID, reason)
	if err := uow.CreateAuditLogCtx(ctx, domain.NewAuditLog(citizenAID, &adminID, domain.AuditActionKeptBoth, &detail)); err != nil {
		return nil, fmt.Errorf("resolution: audit citizen %d: %w", citizenAID, err)
	}
	detailB := fmt.Sprintf(`{"other_id":%d,"reason":%q}`, citizenAID, reason)
	if err := uow.CreateAuditLogCtx(ctx, domain.NewAuditLog(citizenBID, &adminID, domain.AuditActionKeptBoth, &detailB)); err != nil {
		return nil, fmt.Errorf("resolution: audit citizen %d: %w", citizenBID, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("resolution: commit: %w", err)
	}

	e.publishResolved(ctx, citizenAID, citizenBID, adminID, DecisionKeepBoth, reason)
	e.publishResolved(ctx, citizenBID, citizenAID, adminID, DecisionKeepBoth, reason)

	return &Outcome{
		Decision:   DecisionKeepBoth,
		Survivor:   a,
		Duplicate:  b,
		ResolvedAt: e.now(),
	}, nil
}

// Merge retires the duplicate citizen into the survivor. Field replacements,
// when present, overwrite the survivor's identity fields with values taken
// from the duplicate before it is retired. Applications already granted stay
// attached to their original citizen rows for audit purposes.
func (e *Engine) Merge(ctx context.Context, md domain.MergeData) (*Outcome, error) {
	if err := md.Validate(); err != nil {
		return nil, errs.NewValidation("resolution.Merge", "invalid merge request", err)
	}

	uow, err := e.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolution: begin: %w", err)
	}
	defer uow.Rollback()

	survivor, err := uow.GetCitizenByIDCtx(ctx, md.SurvivorID)
	if err != nil {
		return nil, fmt.Errorf("resolution: load survivor %d: %w", md.SurvivorID, err)
	}
	dup, err := uow.GetCitizenByIDCtx(ctx, md.DuplicateID)
	if err != nil {
		return nil, fmt.Errorf("resolution: load duplicate %d: %w", md.DuplicateID, err)
	}
	if survivor.Status != models.CitizenStatusActive {
		return nil, errs.NewBiz("resolution.Merge", fmt.Sprintf("survivor %d is %s, not active", survivor.ID, survivor.Status), nil)
	}
	if dup.Status != models.CitizenStatusActive {
		return nil, errs.NewBiz("resolution.Merge", fmt.Sprintf("duplicate %d is %s, not active", dup.ID, dup.Status), nil)
	}

	if md.Replacements.HasReplacements() {
		if err := applyReplacement(survivor, md.Replacements.Replacement); err != nil {
			return nil, fmt.Errorf("resolution: apply replacements: %w", err)
		}
		if err := uow.UpdateCitizenCtx(ctx, survivor); err != nil {
			return nil, fmt.Errorf("resolution: update survivor %d: %w", survivor.ID, err)
		}
	}
	if err := uow.UpdateCitizenStatusCtx(ctx, dup.ID, models.CitizenStatusMerged, &survivor.ID); err != nil {
		return nil, fmt.Errorf("resolution: retire duplicate %d: %w", dup.ID, err)
	}

	detail, err := mergeDetail(md)
	if err != nil {
		return nil, err
	}
	admin := md.AdminID
	if err := uow.CreateAuditLogCtx(ctx, domain.NewAuditLog(survivor.ID, &admin, domain.AuditActionMerged, &detail)); err != nil {
		return nil, fmt.Errorf("resolution: audit survivor %d: %w", survivor.ID, err)
	}
	if err := uow.CreateAuditLogCtx(ctx, domain.NewAuditLog(dup.ID, &admin, domain.AuditActionMerged, &detail)); err != nil {
		return nil, fmt.Errorf("resolution: audit duplicate %d: %w", dup.ID, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("resolution: commit: %w", err)
	}

	dup.Status = models.CitizenStatusMerged
	dup.MergedIntoID = &survivor.ID

	e.publishResolved(ctx, dup.ID, survivor.ID, md.AdminID, DecisionMerged, md.Notes)

	return &Outcome{
		Decision:   DecisionMerged,
		Survivor:   survivor,
		Duplicate:  dup,
		ResolvedAt: e.now(),
	}, nil
}

// publishResolved appends a resolved event after commit. Event publication is
// best effort: losing an event does not undo the resolution, which is already
// in the audit log.
func (e *Engine) publishResolved(ctx context.Context, citizenID, otherID int64, adminID int, decision, reason string) {
	if e.eventStore == nil {
		return
	}
	_ = e.eventStore.Append(ctx, events.DuplicateResolved{
		Base:     events.Base{Ts: e.now(), CID: citizenID, Adm: &adminID},
		OtherID:  otherID,
		Decision: decision,
		Reason:   reason,
	})
}

func mergeDetail(md domain.MergeData) (string, error) {
	repl, err := md.Replacements.ToJSON()
	if err != nil {
		return "", fmt.Errorf("resolution: serialize replacements: %w", err)
	}
	return fmt.Sprintf(`{"survivor_id":%d,"duplicate_id":%d,"notes":%q,"replacements":%s}`,
		md.SurvivorID, md.DuplicateID, md.Notes, repl), nil
}

// applyReplacement copies non-nil replacement fields onto the survivor.
func applyReplacement(c *models.Citizen, r *domain.CitizenFieldData) error {
	if r.LastName != nil {
		c.LastName = *r.LastName
	}
	if r.FirstName != nil {
		c.FirstName = *r.FirstName
	}
	if r.MiddleName != nil {
		c.MiddleName = r.MiddleName
	}
	if r.ExtensionName != nil {
		c.ExtensionName = r.ExtensionName
	}
	if r.BirthDate != nil {
		bd, err := time.Parse("2006-01-02", *r.BirthDate)
		if err != nil {
			return fmt.Errorf("birth date %q: %w", *r.BirthDate, err)
		}
		c.BirthDate = bd
	}
	if r.Barangay != nil {
		c.Barangay = r.Barangay
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	if r.ContactNumber != nil {
		c.ContactNumber = r.ContactNumber
	}
	return nil
}

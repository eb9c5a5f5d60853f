package registration

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"eca-system/internal/domain"
	"eca-system/internal/matching"
	"eca-system/internal/models"
	"eca-system/pkg/utils"
)

var phonePattern = regexp.MustCompile(`^[0-9+\-() ]+$`)

// Discrepancy is one field that differs between the two keyed entries.
type Discrepancy struct {
	Field  string `json:"field"`
	First  string `json:"first"`
	Second string `json:"second"`
}

// Outcome is the result of a registration attempt.
// Exactly one of the three shapes applies:
//   - Discrepancies non-empty: double entry failed, nothing persisted.
//   - DuplicateHits non-empty and Forced false: insert withheld pending a
//     duplicate-resolution decision.
//   - Citizen non-nil: the record was persisted.
type Outcome struct {
	Citizen       *models.Citizen         `json:"citizen,omitempty"`
	Discrepancies []Discrepancy           `json:"discrepancies,omitempty"`
	DuplicateHits []matching.DuplicateHit `json:"duplicate_hits,omitempty"`
}

// Service performs double-entry verified registration with duplicate
// screening against the existing registry.
type Service struct {
	repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

// VerifyEntries compares two independently keyed entries field by field and
// returns the list of mismatches. Name comparisons are case-insensitive; the
// intent is to catch typos, not case-style differences between encoders.
func VerifyEntries(first, second Entry) []Discrepancy {
	var out []Discrepancy
	check := func(field, a, b string) {
		if !strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
			out = append(out, Discrepancy{Field: field, First: a, Second: b})
		}
	}
	checkOpt := func(field string, a, b *string) {
		av, bv := "", ""
		if a != nil {
			av = *a
		}
		if b != nil {
			bv = *b
		}
		check(field, av, bv)
	}
	check("lastName", first.LastName, second.LastName)
	check("firstName", first.FirstName, second.FirstName)
	checkOpt("middleName", first.MiddleName, second.MiddleName)
	checkOpt("extensionName", first.ExtensionName, second.ExtensionName)
	check("birthDate", first.BirthDate, second.BirthDate)
	checkOpt("sex", first.Sex, second.Sex)
	checkOpt("civilStatus", first.CivilStatus, second.CivilStatus)
	checkOpt("barangay", first.Barangay, second.Barangay)
	checkOpt("address", first.Address, second.Address)
	checkOpt("contactNumber", first.ContactNumber, second.ContactNumber)
	checkOpt("oscaId", first.OSCAID, second.OSCAID)
	return out
}

// Register runs the full intake pipeline: validate the first entry, verify
// the second against it, screen for duplicates, then persist. When force is
// true a duplicate hit does not withhold the insert (the operator chose
// "create new" at the resolution prompt).
func (s *Service) Register(ctx context.Context, first, second Entry, adminID int, force bool) (*Outcome, error) {
	if err := first.Validate(); err != nil {
		return nil, err
	}
	if d := VerifyEntries(first, second); len(d) > 0 {
		return &Outcome{Discrepancies: d}, nil
	}

	bd, err := first.ParseBirthDate()
	if err != nil {
		return nil, err
	}
	candidate := matching.PersonRecord{
		LastName:      first.LastName,
		FirstName:     first.FirstName,
		MiddleName:    first.MiddleName,
		ExtensionName: first.ExtensionName,
		BirthDate:     bd,
	}

	existing, err := s.repo.GetActiveCitizensCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("registration: load registry: %w", err)
	}
	records := make([]matching.PersonRecord, len(existing))
	for i, c := range existing {
		records[i] = c.PersonRecord()
	}
	hits := matching.QuickDuplicateCheck(candidate, records)
	if len(hits) > 0 && !force {
		return &Outcome{DuplicateHits: hits}, nil
	}

	now := time.Now()
	citizen := &models.Citizen{
		ReferenceNo:   uuid.NewString(),
		LastName:      utils.CanonicalName(first.LastName),
		FirstName:     utils.CanonicalName(first.FirstName),
		MiddleName:    utils.CanonicalNamePtr(first.MiddleName),
		ExtensionName: utils.CanonicalNamePtr(first.ExtensionName),
		BirthDate:     bd,
		Sex:           first.Sex,
		CivilStatus:   first.CivilStatus,
		Barangay:      utils.CollapseSpacesPtr(first.Barangay),
		Address:       utils.CollapseSpacesPtr(first.Address),
		ContactNumber: utils.NormalizeContactNumberPtr(first.ContactNumber),
		OSCAID:        first.OSCAID,
		Status:        models.CitizenStatusActive,
		RegisteredBy:  &adminID,
		CreatedAt:     &now,
	}
	id, err := s.repo.CreateCitizenCtx(ctx, citizen)
	if err != nil {
		return nil, fmt.Errorf("registration: persist citizen: %w", err)
	}
	citizen.ID = id

	_ = s.repo.CreateAuditLogCtx(ctx, domain.NewAuditLog(id, &adminID, domain.AuditActionRegistered, nil))

	out := &Outcome{Citizen: citizen}
	if force {
		out.DuplicateHits = hits
	}
	return out, nil
}

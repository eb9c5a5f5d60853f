// Package testutil provides in-memory fakes for repository-facing tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"eca-system/internal/domain"
	"eca-system/internal/domain/specs"
	"eca-system/internal/models"
	errs "eca-system/pkg/errors"
)

// MemoryRepository is an in-memory domain.Repository. It is safe for
// concurrent use and keeps insertion order stable (citizens sorted by last
// name on read, matching the SQL layer's ordering contract).
type MemoryRepository struct {
	Mu           sync.Mutex
	Citizens     map[int64]*models.Citizen
	Applications map[int64]*models.Application
	Stakeholders map[int64]*models.Stakeholder
	AuditLogs    []domain.RegistryAuditLog

	nextCitizen     int64
	nextApplication int64
	nextStakeholder int64
	nextAudit       int64

	// Err, when set, is returned by every method. For failure-path tests.
	Err error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		Citizens:     map[int64]*models.Citizen{},
		Applications: map[int64]*models.Application{},
		Stakeholders: map[int64]*models.Stakeholder{},
	}
}

var _ domain.Repository = (*MemoryRepository)(nil)

// SeedCitizen inserts a citizen directly, assigning an ID.
func (m *MemoryRepository) SeedCitizen(c models.Citizen) models.Citizen {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.nextCitizen++
	c.ID = m.nextCitizen
	if c.Status == "" {
		c.Status = models.CitizenStatusActive
	}
	cc := c
	m.Citizens[c.ID] = &cc
	return c
}

func (m *MemoryRepository) GetActiveCitizensCtx(ctx context.Context) ([]models.Citizen, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Citizen
	for _, c := range m.Citizens {
		if c.Status == models.CitizenStatusActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) GetCitizensFilteredCtx(ctx context.Context, status, search string, limit, offset int) ([]models.Citizen, int, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	var all []models.Citizen
	for _, c := range m.Citizens {
		if status != "" && c.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.FullName()), strings.ToLower(search)) {
			continue
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *MemoryRepository) FilterActiveBySpecCtx(ctx context.Context, s specs.Specification[models.Citizen]) ([]models.Citizen, error) {
	active, err := m.GetActiveCitizensCtx(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Citizen, 0, len(active))
	for _, c := range active {
		if s.IsSatisfiedBy(ctx, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryRepository) GetCitizenByIDCtx(ctx context.Context, id int64) (*models.Citizen, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Citizens[id]
	if !ok {
		return nil, errs.NewNotFound("MemoryRepository.GetCitizenByIDCtx", "citizen", id)
	}
	cc := *c
	return &cc, nil
}

func (m *MemoryRepository) CreateCitizenCtx(ctx context.Context, c *models.Citizen) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.nextCitizen++
	cc := *c
	cc.ID = m.nextCitizen
	m.Citizens[cc.ID] = &cc
	return cc.ID, nil
}

func (m *MemoryRepository) UpdateCitizenCtx(ctx context.Context, c *models.Citizen) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Citizens[c.ID]; !ok {
		return errs.NewNotFound("MemoryRepository.UpdateCitizenCtx", "citizen", c.ID)
	}
	cc := *c
	m.Citizens[c.ID] = &cc
	return nil
}

func (m *MemoryRepository) UpdateCitizenStatusCtx(ctx context.Context, id int64, status string, mergedIntoID *int64) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c, ok := m.Citizens[id]
	if !ok {
		return errs.NewNotFound("MemoryRepository.UpdateCitizenStatusCtx", "citizen", id)
	}
	c.Status = status
	c.MergedIntoID = mergedIntoID
	return nil
}

func (m *MemoryRepository) GetRegistryStatsCtx(ctx context.Context) (*models.RegistryStats, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	st := &models.RegistryStats{Citizens: len(m.Citizens), Stakeholders: len(m.Stakeholders)}
	for _, c := range m.Citizens {
		switch c.Status {
		case models.CitizenStatusActive:
			st.ActiveCitizens++
		case models.CitizenStatusMerged:
			st.MergedCitizens++
		}
	}
	for _, a := range m.Applications {
		switch a.Status {
		case models.ApplicationStatusPending:
			st.PendingApplications++
		case models.ApplicationStatusApproved:
			st.ApprovedApplications++
		case models.ApplicationStatusReleased:
			st.ReleasedApplications++
		case models.ApplicationStatusRejected:
			st.RejectedApplications++
		}
	}
	return st, nil
}

func (m *MemoryRepository) CreateApplicationCtx(ctx context.Context, a *models.Application) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.nextApplication++
	aa := *a
	aa.ID = m.nextApplication
	if aa.FiledAt.IsZero() {
		aa.FiledAt = time.Now()
	}
	m.Applications[aa.ID] = &aa
	return aa.ID, nil
}

func (m *MemoryRepository) GetApplicationByIDCtx(ctx context.Context, id int64) (*models.Application, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Applications[id]
	if !ok {
		return nil, errs.NewNotFound("MemoryRepository.GetApplicationByIDCtx", "application", id)
	}
	aa := *a
	return &aa, nil
}

func (m *MemoryRepository) GetApplicationsByCitizenCtx(ctx context.Context, citizenID int64) ([]models.Application, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Application
	for _, a := range m.Applications {
		if a.CitizenID == citizenID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) GetApplicationsFilteredCtx(ctx context.Context, status string, limit, offset int) ([]models.ApplicationWithCitizen, int, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	var out []models.ApplicationWithCitizen
	for _, a := range m.Applications {
		if status != "" && a.Status != status {
			continue
		}
		row := models.ApplicationWithCitizen{Application: *a}
		if c, ok := m.Citizens[a.CitizenID]; ok {
			row.Citizen = *c
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Application.ID < out[j].Application.ID })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *MemoryRepository) UpdateApplicationStatusCtx(ctx context.Context, id int64, status string, remarks *string, reviewerID *int) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.Applications[id]
	if !ok {
		return errs.NewNotFound("MemoryRepository.UpdateApplicationStatusCtx", "application", id)
	}
	a.Status = status
	a.Remarks = remarks
	a.ReviewedByID = reviewerID
	now := time.Now()
	a.ReviewedAt = &now
	if status == models.ApplicationStatusReleased {
		a.ReleasedAt = &now
	}
	return nil
}

func (m *MemoryRepository) HasGrantForMilestoneCtx(ctx context.Context, citizenID int64, milestoneAge int) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, a := range m.Applications {
		if a.CitizenID == citizenID && a.MilestoneAge == milestoneAge && a.Status != models.ApplicationStatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) GetStakeholdersCtx(ctx context.Context, activeOnly bool) ([]models.Stakeholder, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Stakeholder
	for _, s := range m.Stakeholders {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) GetStakeholderByIDCtx(ctx context.Context, id int64) (*models.Stakeholder, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Stakeholders[id]
	if !ok {
		return nil, errs.NewNotFound("MemoryRepository.GetStakeholderByIDCtx", "stakeholder", id)
	}
	ss := *s
	return &ss, nil
}

func (m *MemoryRepository) CreateStakeholderCtx(ctx context.Context, s *models.Stakeholder) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.nextStakeholder++
	ss := *s
	ss.ID = m.nextStakeholder
	m.Stakeholders[ss.ID] = &ss
	return ss.ID, nil
}

func (m *MemoryRepository) UpdateStakeholderCtx(ctx context.Context, s *models.Stakeholder) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Stakeholders[s.ID]; !ok {
		return errs.NewNotFound("MemoryRepository.UpdateStakeholderCtx", "stakeholder", s.ID)
	}
	ss := *s
	m.Stakeholders[s.ID] = &ss
	return nil
}

func (m *MemoryRepository) DeactivateStakeholderCtx(ctx context.Context, id int64) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s, ok := m.Stakeholders[id]
	if !ok {
		return errs.NewNotFound("MemoryRepository.DeactivateStakeholderCtx", "stakeholder", id)
	}
	s.Active = false
	return nil
}

func (m *MemoryRepository) CreateAuditLogCtx(ctx context.Context, log *domain.RegistryAuditLog) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextAudit++
	entry := *log
	entry.ID = m.nextAudit
	m.AuditLogs = append(m.AuditLogs, entry)
	return nil
}

func (m *MemoryRepository) GetAuditLogsByCitizenCtx(ctx context.Context, citizenID int64) ([]domain.RegistryAuditLog, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.RegistryAuditLog
	for _, l := range m.AuditLogs {
		if l.CitizenID == citizenID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MemoryRepository) GetAuditLogsByAdminCtx(ctx context.Context, adminID, limit, offset int) ([]domain.RegistryAuditLog, int, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	var out []domain.RegistryAuditLog
	for _, l := range m.AuditLogs {
		if l.AdminID != nil && *l.AdminID == adminID {
			out = append(out, l)
		}
	}
	return paginate(out, limit, offset)
}

func (m *MemoryRepository) GetAuditLogsPaginatedCtx(ctx context.Context, limit, offset int) ([]domain.RegistryAuditLog, int, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	out := append([]domain.RegistryAuditLog{}, m.AuditLogs...)
	return paginate(out, limit, offset)
}

func paginate(logs []domain.RegistryAuditLog, limit, offset int) ([]domain.RegistryAuditLog, int, error) {
	total := len(logs)
	if offset > len(logs) {
		offset = len(logs)
	}
	logs = logs[offset:]
	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}
	return logs, total, nil
}

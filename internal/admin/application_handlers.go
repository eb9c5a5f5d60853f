package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"eca-system/internal/auth"
	"eca-system/internal/domain"
	"eca-system/internal/domain/specs"
	"eca-system/internal/eligibility"
	"eca-system/internal/models"
	"eca-system/pkg/events"
	errs "eca-system/pkg/errors"
)

type applicationRequest struct {
	CitizenID    int64 `json:"citizen_id"`
	MilestoneAge int   `json:"milestone_age"`
}

// CreateApplicationHandler files a cash-gift application after checking the
// citizen is active, old enough for the milestone, and not already granted.
func CreateApplicationHandler(repo domain.Repository, calc *eligibility.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := auth.GetAdminIDFromContext(r.Context())
		if !ok {
			respondJSON(w, http.StatusForbidden, errorBody{Error: "admin identity required"})
			return
		}

		var req applicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errs.NewValidation("CreateApplicationHandler", "malformed request body", err))
			return
		}

		citizen, err := repo.GetCitizenByIDCtx(r.Context(), req.CitizenID)
		if err != nil {
			respondError(w, err)
			return
		}
		hasGrant, err := repo.HasGrantForMilestoneCtx(r.Context(), req.CitizenID, req.MilestoneAge)
		if err != nil {
			respondError(w, err)
			return
		}
		if err := calc.Admissible(*citizen, req.MilestoneAge, hasGrant, time.Now()); err != nil {
			respondError(w, errs.NewBiz("CreateApplicationHandler", "application not admissible", err))
			return
		}
		amount, _ := calc.PayoutFor(req.MilestoneAge)

		app := &models.Application{
			CitizenID:    req.CitizenID,
			MilestoneAge: req.MilestoneAge,
			Status:       models.ApplicationStatusPending,
			AmountPHP:    amount,
			FiledByID:    &adminID,
			FiledAt:      time.Now(),
		}
		if _, err := repo.CreateApplicationCtx(r.Context(), app); err != nil {
			respondError(w, err)
			return
		}

		detail := `{"milestone_age":` + strconv.Itoa(req.MilestoneAge) + `,"status":"pending"}`
		if err := repo.CreateAuditLogCtx(r.Context(),
			domain.NewAuditLog(req.CitizenID, &adminID, domain.AuditActionApplicationStatus, &detail)); err == nil && eventSink != nil {
			_ = eventSink.Append(r.Context(), events.ApplicationStatusChanged{
				Base:          events.Base{Ts: time.Now(), CID: req.CitizenID, Adm: &adminID},
				ApplicationID: app.ID,
				MilestoneAge:  req.MilestoneAge,
				From:          "",
				To:            models.ApplicationStatusPending,
				AmountPHP:     amount,
			})
		}
		respondJSON(w, http.StatusCreated, app)
	}
}

type eligibleListResponse struct {
	MilestoneAge int              `json:"milestone_age"`
	AmountPHP    float64          `json:"amount_php"`
	Citizens     []models.Citizen `json:"citizens"`
	Total        int              `json:"total"`
}

// EligibleCitizensHandler lists active citizens who have reached a milestone
// age, optionally narrowed to one barangay. Outreach teams use this roster to
// chase applications that were never filed.
func EligibleCitizensHandler(repo domain.Repository, calc *eligibility.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		milestone, err := strconv.Atoi(r.URL.Query().Get("milestone"))
		if err != nil {
			respondError(w, errs.NewValidation("EligibleCitizensHandler", "milestone query parameter required", err))
			return
		}
		amount, ok := calc.PayoutFor(milestone)
		if !ok {
			respondError(w, errs.NewValidation("EligibleCitizensHandler",
				strconv.Itoa(milestone)+" is not a milestone age", nil))
			return
		}

		spec := specs.HasCompleteIdentity().And(specs.ReachedAge(milestone, time.Now()))
		if barangay := r.URL.Query().Get("barangay"); barangay != "" {
			spec = spec.And(specs.InBarangay(barangay))
		}
		citizens, err := repo.FilterActiveBySpecCtx(r.Context(), spec)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, eligibleListResponse{
			MilestoneAge: milestone,
			AmountPHP:    amount,
			Citizens:     citizens,
			Total:        len(citizens),
		})
	}
}

type applicationListResponse struct {
	Applications []models.ApplicationWithCitizen `json:"applications"`
	Total        int                             `json:"total"`
}

func ApplicationsHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		limit, offset := pageParams(r, 50)

		apps, total, err := repo.GetApplicationsFilteredCtx(r.Context(), status, limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}
		if apps == nil {
			apps = []models.ApplicationWithCitizen{}
		}
		respondJSON(w, http.StatusOK, applicationListResponse{Applications: apps, Total: total})
	}
}

type applicationStatusRequest struct {
	Status  string  `json:"status"`
	Remarks *string `json:"remarks,omitempty"`
}

// UpdateApplicationStatusHandler moves an application along the workflow.
// Illegal transitions are rejected before touching the database.
func UpdateApplicationStatusHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := auth.GetAdminIDFromContext(r.Context())
		if !ok {
			respondJSON(w, http.StatusForbidden, errorBody{Error: "admin identity required"})
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req applicationStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errs.NewValidation("UpdateApplicationStatusHandler", "malformed request body", err))
			return
		}

		app, err := repo.GetApplicationByIDCtx(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if !models.ValidStatusTransition(app.Status, req.Status) {
			respondError(w, errs.NewBiz("UpdateApplicationStatusHandler",
				"cannot move application from "+app.Status+" to "+req.Status, nil))
			return
		}

		if err := repo.UpdateApplicationStatusCtx(r.Context(), id, req.Status, req.Remarks, &adminID); err != nil {
			respondError(w, err)
			return
		}

		detail := `{"application_id":` + strconv.FormatInt(id, 10) + `,"from":"` + app.Status + `","to":"` + req.Status + `"}`
		_ = repo.CreateAuditLogCtx(r.Context(),
			domain.NewAuditLog(app.CitizenID, &adminID, domain.AuditActionApplicationStatus, &detail))
		if eventSink != nil {
			_ = eventSink.Append(r.Context(), events.ApplicationStatusChanged{
				Base:          events.Base{Ts: time.Now(), CID: app.CitizenID, Adm: &adminID},
				ApplicationID: id,
				MilestoneAge:  app.MilestoneAge,
				From:          app.Status,
				To:            req.Status,
				AmountPHP:     app.AmountPHP,
			})
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}

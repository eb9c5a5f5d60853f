package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"eca-system/internal/domain"
	"eca-system/internal/models"
	errs "eca-system/pkg/errors"
)

func StakeholdersHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("all") == ""
		stakeholders, err := repo.GetStakeholdersCtx(r.Context(), activeOnly)
		if err != nil {
			respondError(w, err)
			return
		}
		if stakeholders == nil {
			stakeholders = []models.Stakeholder{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"stakeholders": stakeholders})
	}
}

func CreateStakeholderHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s models.Stakeholder
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			respondError(w, errs.NewValidation("CreateStakeholderHandler", "malformed request body", err))
			return
		}
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Role) == "" {
			respondError(w, errs.NewValidation("CreateStakeholderHandler", "name and role are required", nil))
			return
		}
		s.Active = true
		if _, err := repo.CreateStakeholderCtx(r.Context(), &s); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, s)
	}
}

func UpdateStakeholderHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		var s models.Stakeholder
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			respondError(w, errs.NewValidation("UpdateStakeholderHandler", "malformed request body", err))
			return
		}
		s.ID = id
		if err := repo.UpdateStakeholderCtx(r.Context(), &s); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, s)
	}
}

func DeactivateStakeholderHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		if err := repo.DeactivateStakeholderCtx(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusNoContent, nil)
	}
}

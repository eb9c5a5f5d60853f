package admin

import (
	"encoding/json"
	"net/http"

	"eca-system/internal/auth"
	"eca-system/internal/domain"
	"eca-system/internal/resolution"
	"eca-system/internal/scan"
	errs "eca-system/pkg/errors"

	"github.com/gorilla/mux"
)

// TriggerScanHandler starts a background duplicate scan over the active
// registry and returns the scan ID for polling.
func TriggerScanHandler(worker *scan.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scanID, err := worker.Trigger(r.Context())
		switch err {
		case nil:
			mScanTriggered.Inc(1)
			respondJSON(w, http.StatusAccepted, map[string]string{"scan_id": scanID})
		case scan.ErrScanInProgress:
			respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
		case scan.ErrRateLimited:
			respondJSON(w, http.StatusTooManyRequests, errorBody{Error: err.Error()})
		default:
			respondError(w, err)
		}
	}
}

// LatestScanHandler returns the most recent scan result, expired results 404.
func LatestScanHandler(worker *scan.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := worker.Latest()
		if !ok {
			respondJSON(w, http.StatusNotFound, errorBody{Error: "no scan result available"})
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// ScanResultHandler returns one scan by ID.
func ScanResultHandler(worker *scan.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scanID := mux.Vars(r)["id"]
		result, ok := worker.Get(scanID)
		if !ok {
			respondJSON(w, http.StatusNotFound, errorBody{Error: "scan result not found or expired"})
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

type resolveRequest struct {
	Decision     string                   `json:"decision"` // keep_both or merged
	CitizenAID   int64                    `json:"citizen_a_id"`
	CitizenBID   int64                    `json:"citizen_b_id"`
	SurvivorID   int64                    `json:"survivor_id,omitempty"`
	Notes        string                   `json:"notes,omitempty"`
	Replacements *domain.MergeReplacement `json:"replacements,omitempty"`
}

// ResolvePairHandler applies an operator decision to a candidate pair.
func ResolvePairHandler(engine *resolution.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := auth.GetAdminIDFromContext(r.Context())
		if !ok {
			respondJSON(w, http.StatusForbidden, errorBody{Error: "admin identity required"})
			return
		}

		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errs.NewValidation("ResolvePairHandler", "malformed request body", err))
			return
		}

		switch req.Decision {
		case resolution.DecisionKeepBoth:
			out, err := engine.KeepBoth(r.Context(), req.CitizenAID, req.CitizenBID, adminID, req.Notes)
			if err != nil {
				respondError(w, err)
				return
			}
			mPairsResolved.Inc(1)
			respondJSON(w, http.StatusOK, out)

		case resolution.DecisionMerged:
			survivor := req.SurvivorID
			if survivor == 0 {
				survivor = req.CitizenAID
			}
			duplicate := req.CitizenBID
			if survivor == req.CitizenBID {
				duplicate = req.CitizenAID
			}
			out, err := engine.Merge(r.Context(), domain.MergeData{
				SurvivorID:   survivor,
				DuplicateID:  duplicate,
				AdminID:      adminID,
				Notes:        req.Notes,
				Replacements: req.Replacements,
			})
			if err != nil {
				respondError(w, err)
				return
			}
			mPairsResolved.Inc(1)
			respondJSON(w, http.StatusOK, out)

		default:
			respondError(w, errs.NewValidation("ResolvePairHandler", "decision must be keep_both or merged", nil))
		}
	}
}

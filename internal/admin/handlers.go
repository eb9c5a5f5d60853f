package admin

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"eca-system/internal/auth"
	"eca-system/internal/domain"
	"eca-system/internal/models"
	"eca-system/internal/registration"
	"eca-system/internal/scan"
	"eca-system/pkg/events"
	errs "eca-system/pkg/errors"
	"eca-system/pkg/metrics"

	"github.com/gorilla/mux"
)

// Event sink for admin actions. Set from main.
var eventSink events.EventStore

func SetEventStore(es events.EventStore) { eventSink = es }

// metrics
var (
	mRegistered    = metrics.Default.Counter("citizens_registered_total", "Citizens registered through double entry")
	mRegWithheld   = metrics.Default.Counter("registrations_withheld_total", "Registrations withheld on duplicate hit or mismatch")
	mScanTriggered = metrics.Default.Counter("scans_triggered_total", "Duplicate scans triggered by operators")
	mPairsResolved = metrics.Default.Counter("pairs_resolved_total", "Duplicate pairs resolved by operators")
	gActiveCitizen = metrics.Default.Gauge("active_citizens_gauge", "Active citizens at last dashboard load")
)

// DashboardData feeds the operator landing page.
type DashboardData struct {
	Stats       models.RegistryStats `json:"stats"`
	ScanRunning bool                 `json:"scan_running"`
	LastScan    *scan.Result         `json:"last_scan,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

func DashboardHandler(repo domain.Repository, worker *scan.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.GetRegistryStatsCtx(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		gActiveCitizen.SetFloat64(float64(stats.ActiveCitizens))

		data := DashboardData{
			Stats:       *stats,
			GeneratedAt: time.Now(),
		}
		if worker != nil {
			data.ScanRunning = worker.Running()
			if last, ok := worker.Latest(); ok {
				// Trim match payloads on the dashboard; the scan endpoints
				// carry the full list.
				summary := *last
				summary.Matches = nil
				data.LastScan = &summary
			}
		}
		respondJSON(w, http.StatusOK, data)
	}
}

type citizenListResponse struct {
	Citizens []models.Citizen `json:"citizens"`
	Total    int              `json:"total"`
}

func CitizensHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		search := r.URL.Query().Get("search")
		limit, offset := pageParams(r, 50)

		citizens, total, err := repo.GetCitizensFilteredCtx(r.Context(), status, search, limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}
		if citizens == nil {
			citizens = []models.Citizen{}
		}
		respondJSON(w, http.StatusOK, citizenListResponse{Citizens: citizens, Total: total})
	}
}

type citizenDetailResponse struct {
	Citizen      models.Citizen            `json:"citizen"`
	Applications []models.Application      `json:"applications"`
	AuditLog     []domain.RegistryAuditLog `json:"audit_log"`
	History      *events.RebuiltState      `json:"history,omitempty"`
}

func CitizenDetailHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		citizen, err := repo.GetCitizenByIDCtx(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		apps, err := repo.GetApplicationsByCitizenCtx(r.Context(), id)
		if err != nil {
			log.Printf("admin: load applications for citizen %d: %v", id, err)
			apps = []models.Application{}
		}
		logs, err := repo.GetAuditLogsByCitizenCtx(r.Context(), id)
		if err != nil {
			log.Printf("admin: load audit log for citizen %d: %v", id, err)
			logs = []domain.RegistryAuditLog{}
		}

		resp := citizenDetailResponse{
			Citizen:      *citizen,
			Applications: apps,
			AuditLog:     logs,
		}
		if eventSink != nil {
			if st, err := eventSink.ReplayCitizen(r.Context(), id); err == nil {
				resp.History = st
			}
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

type registerRequest struct {
	First  registration.Entry `json:"first"`
	Second registration.Entry `json:"second"`
	Force  bool               `json:"force"`
	HoldID string             `json:"hold_id,omitempty"` // resume a withheld registration
}

type registerResponse struct {
	*registration.Outcome
	HoldID string `json:"hold_id,omitempty"`
}

// RegisterCitizenHandler accepts the two independently encoded entries and
// runs the double-entry verification plus the entry-time duplicate check.
// A withheld registration is parked in the hold store; the operator resumes
// it by hold_id once the flagged pair is resolved.
func RegisterCitizenHandler(svc *registration.Service, holds *registration.HoldStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := auth.GetAdminIDFromContext(r.Context())
		if !ok {
			respondJSON(w, http.StatusForbidden, errorBody{Error: "admin identity required"})
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errs.NewValidation("RegisterCitizenHandler", "malformed request body", err))
			return
		}
		if req.HoldID != "" && holds != nil {
			held, ok := holds.Get(req.HoldID)
			if !ok {
				respondError(w, errs.NewNotFound("RegisterCitizenHandler", "hold", 0))
				return
			}
			req.First, req.Second = held.First, held.Second
		}

		out, err := svc.Register(r.Context(), req.First, req.Second, adminID, req.Force)
		if err != nil {
			respondError(w, err)
			return
		}

		if out.Citizen == nil {
			mRegWithheld.Inc(1)
			publishEntryHits(r, out)
			resp := registerResponse{Outcome: out}
			if len(out.DuplicateHits) > 0 && holds != nil && req.HoldID == "" {
				resp.HoldID = holds.Save(req.First, req.Second, adminID, out.DuplicateHits).ID
			} else {
				resp.HoldID = req.HoldID
			}
			respondJSON(w, http.StatusConflict, resp)
			return
		}

		if holds != nil && req.HoldID != "" {
			holds.Delete(req.HoldID)
		}
		mRegistered.Inc(1)
		if eventSink != nil {
			_ = eventSink.Append(r.Context(), events.CitizenRegistered{
				Base:        events.Base{Ts: time.Now(), CID: out.Citizen.ID, Adm: &adminID},
				ReferenceNo: out.Citizen.ReferenceNo,
				Forced:      req.Force && len(out.DuplicateHits) > 0,
			})
			publishEntryHits(r, out)
		}
		respondJSON(w, http.StatusCreated, registerResponse{Outcome: out})
	}
}

// HoldsHandler lists withheld registrations awaiting a resolution decision.
func HoldsHandler(holds *registration.HoldStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := holds.List()
		if list == nil {
			list = []*registration.Hold{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"holds": list, "total": len(list)})
	}
}

// DiscardHoldHandler drops a withheld registration without persisting it.
func DiscardHoldHandler(holds *registration.HoldStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if _, ok := holds.Get(id); !ok {
			respondError(w, errs.NewNotFound("DiscardHoldHandler", "hold", 0))
			return
		}
		holds.Delete(id)
		respondJSON(w, http.StatusNoContent, nil)
	}
}

// publishEntryHits records entry-time duplicate hits against the existing
// records so their history shows the near miss.
func publishEntryHits(r *http.Request, out *registration.Outcome) {
	if eventSink == nil {
		return
	}
	adminID, _ := auth.GetAdminIDFromContext(r.Context())
	otherID := int64(0)
	if out.Citizen != nil {
		otherID = out.Citizen.ID
	}
	for _, hit := range out.DuplicateHits {
		fields := make([]string, len(hit.MatchedFields))
		for i, f := range hit.MatchedFields {
			fields[i] = string(f)
		}
		_ = eventSink.Append(r.Context(), events.DuplicateDetected{
			Base:          events.Base{Ts: time.Now(), CID: hit.Record.ID, Adm: &adminID},
			OtherID:       otherID,
			MatchedFields: fields,
			Source:        "entry",
		})
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateCitizenStatusHandler marks a citizen deceased or reactivates a record.
// Merges go through the resolution endpoint, not here.
func UpdateCitizenStatusHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, _ := auth.GetAdminIDFromContext(r.Context())
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errs.NewValidation("UpdateCitizenStatusHandler", "malformed request body", err))
			return
		}
		if req.Status != models.CitizenStatusActive && req.Status != models.CitizenStatusDeceased {
			respondError(w, errs.NewValidation("UpdateCitizenStatusHandler", "status must be active or deceased", nil))
			return
		}

		if _, err := repo.GetCitizenByIDCtx(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		if err := repo.UpdateCitizenStatusCtx(r.Context(), id, req.Status, nil); err != nil {
			respondError(w, err)
			return
		}

		detail := `{"status":"` + req.Status + `"}`
		if err := repo.CreateAuditLogCtx(r.Context(), domain.NewAuditLog(id, &adminID, domain.AuditActionUpdated, &detail)); err != nil {
			log.Printf("admin: audit status change for citizen %d: %v", id, err)
		}
		if eventSink != nil {
			_ = eventSink.Append(r.Context(), events.CitizenUpdated{
				Base:   events.Base{Ts: time.Now(), CID: id, Adm: &adminID},
				Fields: []string{"status"},
			})
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := mux.Vars(r)[key]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewValidation("pathID", "invalid "+key, err)
	}
	return id, nil
}

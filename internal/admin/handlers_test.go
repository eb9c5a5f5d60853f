package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"eca-system/internal/auth"
	"eca-system/internal/domain"
	"eca-system/internal/eligibility"
	"eca-system/internal/models"
	"eca-system/internal/registration"
	"eca-system/internal/resolution"
	"eca-system/internal/scan"
	testutil "eca-system/internal/testing"
)

func strp(s string) *string { return &s }

// asAdmin stamps the request context the way the auth middleware would.
func asAdmin(r *http.Request, adminID int) *http.Request {
	ctx := context.WithValue(r.Context(), auth.AdminIDKey, adminID)
	return r.WithContext(ctx)
}

func seedSenior(repo *testutil.MemoryRepository) models.Citizen {
	return repo.SeedCitizen(models.Citizen{
		LastName:   "DELA CRUZ",
		FirstName:  "JUAN",
		MiddleName: strp("SANTOS"),
		BirthDate:  time.Date(1940, 5, 12, 0, 0, 0, 0, time.UTC),
	})
}

func TestDashboardHandler(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	seedSenior(repo)

	req := httptest.NewRequest("GET", "/admin", nil)
	rec := httptest.NewRecorder()
	DashboardHandler(repo, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data DashboardData
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if data.Stats.ActiveCitizens != 1 {
		t.Fatalf("expected 1 active citizen, got %+v", data.Stats)
	}
}

func registerBody(t *testing.T, e registration.Entry, force bool) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(registerRequest{First: e, Second: e, Force: force})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(b)
}

func TestRegisterCitizenHandler(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	svc := registration.NewService(repo)
	holds := registration.NewHoldStore(time.Hour)
	h := RegisterCitizenHandler(svc, holds)

	entry := registration.Entry{
		LastName:  "REYES",
		FirstName: "MARIA",
		BirthDate: "1941-02-03",
	}

	req := asAdmin(httptest.NewRequest("POST", "/admin/citizens", registerBody(t, entry, false)), 7)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.Citizens) != 1 {
		t.Fatalf("expected one persisted citizen, got %d", len(repo.Citizens))
	}

	// Same person keyed in again gets withheld and parked as a hold.
	req = asAdmin(httptest.NewRequest("POST", "/admin/citizens", registerBody(t, entry, false)), 7)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.Citizens) != 1 {
		t.Fatalf("duplicate should not persist, got %d citizens", len(repo.Citizens))
	}
	var withheld registerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &withheld); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if withheld.HoldID == "" || holds.Count() != 1 {
		t.Fatalf("expected a parked hold, got id %q, count %d", withheld.HoldID, holds.Count())
	}

	// Resuming the hold with force persists the second record and clears it.
	body, _ := json.Marshal(registerRequest{HoldID: withheld.HoldID, Force: true})
	req = asAdmin(httptest.NewRequest("POST", "/admin/citizens", bytes.NewBuffer(body)), 7)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on forced resume, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.Citizens) != 2 || holds.Count() != 0 {
		t.Fatalf("expected 2 citizens and no holds, got %d citizens, %d holds", len(repo.Citizens), holds.Count())
	}
}

func TestRegisterCitizenHandler_RequiresAdmin(t *testing.T) {
	svc := registration.NewService(testutil.NewMemoryRepository())
	req := httptest.NewRequest("POST", "/admin/citizens", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()
	RegisterCitizenHandler(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin context, got %d", rec.Code)
	}
}

func TestHoldsHandlers(t *testing.T) {
	holds := registration.NewHoldStore(time.Hour)
	h := holds.Save(registration.Entry{LastName: "CRUZ", FirstName: "PEDRO", BirthDate: "1939-01-01"},
		registration.Entry{LastName: "CRUZ", FirstName: "PEDRO", BirthDate: "1939-01-01"}, 7, nil)

	rec := httptest.NewRecorder()
	HoldsHandler(holds).ServeHTTP(rec, httptest.NewRequest("GET", "/admin/holds", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || list.Total != 1 {
		t.Fatalf("expected one hold, got %s (err %v)", rec.Body.String(), err)
	}

	r := mux.NewRouter()
	r.Handle("/admin/holds/{id}", DiscardHoldHandler(holds))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("DELETE", "/admin/holds/"+h.ID, nil))
	if rec.Code != http.StatusNoContent || holds.Count() != 0 {
		t.Fatalf("expected hold discarded, got %d with %d holds left", rec.Code, holds.Count())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("DELETE", "/admin/holds/"+h.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing hold, got %d", rec.Code)
	}
}

func TestCitizenDetailHandler(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	c := seedSenior(repo)

	r := mux.NewRouter()
	r.Handle("/admin/citizens/{id}", CitizenDetailHandler(repo))

	req := httptest.NewRequest("GET", "/admin/citizens/1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var detail citizenDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if detail.Citizen.ID != c.ID {
		t.Fatalf("expected citizen %d, got %+v", c.ID, detail.Citizen)
	}

	req = httptest.NewRequest("GET", "/admin/citizens/999", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown citizen, got %d", rec.Code)
	}
}

func TestCreateApplicationHandler(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	c := seedSenior(repo) // born 1940, in the late 80s at any plausible test run time
	calc := eligibility.NewDefault()
	h := CreateApplicationHandler(repo, calc)

	post := func(citizenID int64, milestone int) *httptest.ResponseRecorder {
		body, _ := json.Marshal(applicationRequest{CitizenID: citizenID, MilestoneAge: milestone})
		req := asAdmin(httptest.NewRequest("POST", "/admin/applications", bytes.NewBuffer(body)), 7)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post(c.ID, 80)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var app models.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &app); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if app.AmountPHP != 10000 {
		t.Fatalf("expected 10000 payout for milestone 80, got %v", app.AmountPHP)
	}

	// One grant per milestone.
	if rec := post(c.ID, 80); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for repeat milestone, got %d: %s", rec.Code, rec.Body.String())
	}

	// Milestone not yet reached.
	if rec := post(c.ID, 100); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unreached milestone, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateApplicationStatusHandler(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	c := seedSenior(repo)
	appID, _ := repo.CreateApplicationCtx(context.Background(), &models.Application{
		CitizenID:    c.ID,
		MilestoneAge: 80,
		Status:       models.ApplicationStatusPending,
		AmountPHP:    10000,
		FiledAt:      time.Now(),
	})

	r := mux.NewRouter()
	r.Handle("/admin/applications/{id}/status", UpdateApplicationStatusHandler(repo))

	patch := func(status string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(applicationStatusRequest{Status: status})
		req := asAdmin(httptest.NewRequest("POST", "/admin/applications/1/status", bytes.NewBuffer(body)), 7)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := patch(models.ApplicationStatusReleased); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("pending cannot jump to released, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := patch(models.ApplicationStatusValidated); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for pending->validated, got %d: %s", rec.Code, rec.Body.String())
	}

	app, _ := repo.GetApplicationByIDCtx(context.Background(), appID)
	if app.Status != models.ApplicationStatusValidated {
		t.Fatalf("expected validated, got %s", app.Status)
	}
}

func TestResolvePairHandler_KeepBoth(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	a := seedSenior(repo)
	b := seedSenior(repo)
	engine := resolution.NewEngine(&testutil.MemoryUnitOfWorkFactory{Repo: repo}, nil)
	h := ResolvePairHandler(engine)

	body, _ := json.Marshal(resolveRequest{
		Decision:   resolution.DecisionKeepBoth,
		CitizenAID: a.ID,
		CitizenBID: b.ID,
		Notes:      "namesakes, different barangays",
	})
	req := asAdmin(httptest.NewRequest("POST", "/admin/pairs/resolve", bytes.NewBuffer(body)), 7)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Unknown decision is a 400.
	body, _ = json.Marshal(resolveRequest{Decision: "discard", CitizenAID: a.ID, CitizenBID: b.ID})
	req = asAdmin(httptest.NewRequest("POST", "/admin/pairs/resolve", bytes.NewBuffer(body)), 7)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown decision, got %d", rec.Code)
	}
}

func TestScanHandlers(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	seedSenior(repo)
	seedSenior(repo)

	cfg := scan.DefaultConfig()
	cfg.TriggerRate = rate.Inf
	worker := scan.NewWorker(repo, nil, cfg)

	req := asAdmin(httptest.NewRequest("POST", "/admin/scans", nil), 7)
	rec := httptest.NewRecorder()
	TriggerScanHandler(worker).ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var trig map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &trig)
	if trig["scan_id"] == "" {
		t.Fatalf("expected a scan id, got %s", rec.Body.String())
	}

	// Wait for the background run to finish before reading results.
	deadline := time.Now().Add(3 * time.Second)
	for worker.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	rec = httptest.NewRecorder()
	LatestScanHandler(worker).ServeHTTP(rec, httptest.NewRequest("GET", "/admin/scans/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from latest, got %d: %s", rec.Code, rec.Body.String())
	}
	var result scan.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if result.Status != scan.StatusDone || len(result.Matches) != 1 {
		t.Fatalf("expected a finished scan with one match, got %+v", result)
	}
}

func TestStakeholderHandlers(t *testing.T) {
	repo := testutil.NewMemoryRepository()

	body, _ := json.Marshal(models.Stakeholder{Name: "OSCA Pasig", Role: "osca_head"})
	req := asAdmin(httptest.NewRequest("POST", "/admin/stakeholders", bytes.NewBuffer(body)), 7)
	rec := httptest.NewRecorder()
	CreateStakeholderHandler(repo).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	StakeholdersHandler(repo).ServeHTTP(rec, httptest.NewRequest("GET", "/admin/stakeholders", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Stakeholders []models.Stakeholder `json:"stakeholders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(list.Stakeholders) != 1 || list.Stakeholders[0].Name != "OSCA Pasig" {
		t.Fatalf("unexpected stakeholder list: %+v", list.Stakeholders)
	}

	// Missing role is rejected.
	body, _ = json.Marshal(models.Stakeholder{Name: "No Role"})
	req = asAdmin(httptest.NewRequest("POST", "/admin/stakeholders", bytes.NewBuffer(body)), 7)
	rec = httptest.NewRecorder()
	CreateStakeholderHandler(repo).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing role, got %d", rec.Code)
	}
}

func TestAuditLogHandler(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	c := seedSenior(repo)
	seven, nine := 7, 9
	_ = repo.CreateAuditLogCtx(context.Background(), domain.NewAuditLog(c.ID, &seven, domain.AuditActionRegistered, nil))
	_ = repo.CreateAuditLogCtx(context.Background(), domain.NewAuditLog(c.ID, &nine, domain.AuditActionUpdated, nil))
	h := AuditLogHandler(repo)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/audit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list auditListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("expected 2 entries, got %+v", list)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/audit?admin_id=9", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if list.Total != 1 || list.Logs[0].Action != domain.AuditActionUpdated {
		t.Fatalf("expected one entry for admin 9, got %+v", list)
	}
}

func TestEligibleCitizensHandler(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	seedSenior(repo) // born 1940, no barangay
	repo.SeedCitizen(models.Citizen{
		LastName:  "SANTOS",
		FirstName: "PEDRO",
		BirthDate: time.Date(1944, 1, 1, 0, 0, 0, 0, time.UTC),
		Barangay:  strp("POBLACION"),
	})
	repo.SeedCitizen(models.Citizen{
		LastName:  "GARCIA",
		FirstName: "ANA",
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	h := EligibleCitizensHandler(repo, eligibility.NewDefault())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/eligibility?milestone=80", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list eligibleListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if list.Total != 2 || list.AmountPHP != 10000 {
		t.Fatalf("expected both seniors at milestone 80, got %+v", list)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/eligibility?milestone=80&barangay=poblacion", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if list.Total != 1 || list.Citizens[0].LastName != "SANTOS" {
		t.Fatalf("expected only the POBLACION senior, got %+v", list)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/eligibility?milestone=81", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-milestone age, got %d", rec.Code)
	}
}

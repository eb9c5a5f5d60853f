package scan

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"eca-system/internal/models"
	testutil "eca-system/internal/testing"
	"eca-system/pkg/events"
)

type memEventStore struct {
	appended []events.Event
}

func (m *memEventStore) Append(ctx context.Context, e events.Event) error {
	m.appended = append(m.appended, e)
	return nil
}

func (m *memEventStore) ListByCitizen(ctx context.Context, citizenID int64) ([]events.StoredEvent, error) {
	return nil, nil
}

func (m *memEventStore) ReplayCitizen(ctx context.Context, citizenID int64) (*events.RebuiltState, error) {
	return nil, nil
}

// blockingRepo holds GetActiveCitizensCtx until released.
type blockingRepo struct {
	*testutil.MemoryRepository
	release chan struct{}
}

func (b *blockingRepo) GetActiveCitizensCtx(ctx context.Context) ([]models.Citizen, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.MemoryRepository.GetActiveCitizensCtx(ctx)
}

func strp(s string) *string { return &s }

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.TriggerRate = rate.Inf
	cfg.JobTimeout = 5 * time.Second
	return cfg
}

func seedDuplicatePair(repo *testutil.MemoryRepository) {
	bd := time.Date(1940, 5, 12, 0, 0, 0, 0, time.UTC)
	repo.SeedCitizen(models.Citizen{
		LastName: "DELA CRUZ", FirstName: "JUAN", MiddleName: strp("SANTOS"), BirthDate: bd,
	})
	repo.SeedCitizen(models.Citizen{
		LastName: "DELA CRUZ", FirstName: "JUAN", MiddleName: strp("SANTOS"), BirthDate: bd,
	})
	repo.SeedCitizen(models.Citizen{
		LastName: "REYES", FirstName: "MARIA", BirthDate: time.Date(1938, 1, 2, 0, 0, 0, 0, time.UTC),
	})
}

func waitDone(t *testing.T, w *Worker, scanID string) *Result {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if r, ok := w.Get(scanID); ok && r.Status != StatusRunning {
			return r
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("scan %s did not finish", scanID)
	return nil
}

func TestTriggerAndScan(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	seedDuplicatePair(repo)
	es := &memEventStore{}
	w := NewWorker(repo, es, fastConfig())

	scanID, err := w.Trigger(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := waitDone(t, w, scanID)
	if r.Status != StatusDone {
		t.Fatalf("expected done, got %+v", r)
	}
	if r.Population != 3 || r.PairsCompared != 3 {
		t.Fatalf("unexpected scan extent: %+v", r)
	}
	if len(r.Matches) != 1 || r.Matches[0].ConfidenceScore != 100 {
		t.Fatalf("expected one exact match, got %+v", r.Matches)
	}
	if len(es.appended) != 1 {
		t.Fatalf("expected one detected event, got %d", len(es.appended))
	}

	latest, ok := w.Latest()
	if !ok || latest.ScanID != scanID {
		t.Fatalf("latest should return the finished scan, got %+v", latest)
	}
}

func TestTriggerRateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TriggerRate = rate.Limit(0.01)
	cfg.TriggerBurst = 1
	w := NewWorker(testutil.NewMemoryRepository(), nil, cfg)

	scanID, err := w.Trigger(context.Background())
	if err != nil {
		t.Fatalf("first trigger should pass: %v", err)
	}
	if _, err := w.Trigger(context.Background()); err != ErrRateLimited {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	waitDone(t, w, scanID)
}

func TestSingleScanAtATime(t *testing.T) {
	repo := &blockingRepo{
		MemoryRepository: testutil.NewMemoryRepository(),
		release:          make(chan struct{}),
	}
	w := NewWorker(repo, nil, fastConfig())

	scanID, err := w.Trigger(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Trigger(context.Background()); err != ErrScanInProgress {
		t.Fatalf("expected in-progress error, got %v", err)
	}
	close(repo.release)
	waitDone(t, w, scanID)
}

func TestPopulationCap(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	for i := 0; i < 5; i++ {
		repo.SeedCitizen(models.Citizen{
			LastName: "CRUZ", FirstName: "N", BirthDate: time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	cfg := fastConfig()
	cfg.MaxPopulation = 4
	w := NewWorker(repo, nil, cfg)

	scanID, err := w.Trigger(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := waitDone(t, w, scanID)
	if r.Status != StatusFailed || r.Error == "" {
		t.Fatalf("oversized registry should fail the scan, got %+v", r)
	}
}

func TestMergedCitizensExcluded(t *testing.T) {
	repo := testutil.NewMemoryRepository()
	seedDuplicatePair(repo)
	var survivor int64 = 1
	_ = repo.UpdateCitizenStatusCtx(context.Background(), 2, models.CitizenStatusMerged, &survivor)
	w := NewWorker(repo, nil, fastConfig())

	scanID, _ := w.Trigger(context.Background())
	r := waitDone(t, w, scanID)
	if r.Status != StatusDone || r.Population != 2 || len(r.Matches) != 0 {
		t.Fatalf("merged citizen should not be scanned, got %+v", r)
	}
}

// Package scan runs registry-wide duplicate scans in the background and keeps
// the most recent results around for the review dashboard.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"eca-system/internal/constants"
	"eca-system/internal/domain"
	"eca-system/internal/matching"
	"eca-system/internal/models"
	"eca-system/pkg/events"
)

var (
	// ErrScanInProgress is returned when a trigger arrives while a scan runs.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrRateLimited is returned when triggers come in faster than allowed.
	ErrRateLimited = errors.New("scan trigger rate limit exceeded")
)

// Scan statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

const latestKey = "latest"

// Config controls scan behavior.
type Config struct {
	MinConfidence float64                 // emission threshold, 0..100
	Selection     matching.FieldSelection // fields compared during the scan
	ResultTTL     time.Duration           // how long results stay retrievable
	TriggerRate   rate.Limit              // allowed trigger frequency
	TriggerBurst  int
	JobTimeout    time.Duration // hard cap on a single scan run
	MaxPopulation int           // refuse to scan registries larger than this
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence: constants.MatchMinConfidenceDefault,
		Selection:     matching.DefaultFieldSelection(),
		ResultTTL:     constants.ScanResultTTLDefault,
		TriggerRate:   rate.Limit(constants.ScanTriggerRateDefault),
		TriggerBurst:  constants.ScanTriggerBurstDefault,
		JobTimeout:    constants.ScanJobTimeoutDefault,
		MaxPopulation: constants.ScanMaxPopulation,
	}
}

// Result is the outcome of one scan run.
type Result struct {
	ScanID        string                 `json:"scan_id"`
	Status        string                 `json:"status"`
	StartedAt     time.Time              `json:"started_at"`
	FinishedAt    *time.Time             `json:"finished_at,omitempty"`
	Population    int                    `json:"population"`
	PairsCompared int                    `json:"pairs_compared"`
	Matches       []matching.MatchResult `json:"matches"`
	Error         string                 `json:"error,omitempty"`
}

// Worker runs one scan at a time over the active registry. Results are held
// in an expiring cache so stale scans age out instead of lingering forever.
type Worker struct {
	repo       domain.CitizenRepository
	eventStore events.EventStore
	cfg        Config

	limiter *rate.Limiter
	results *cache.Cache

	mu      sync.Mutex
	running bool
}

// NewWorker creates a scan worker. The event store is optional.
func NewWorker(repo domain.CitizenRepository, es events.EventStore, cfg Config) *Worker {
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = constants.ScanResultTTLDefault
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = constants.ScanJobTimeoutDefault
	}
	if cfg.MaxPopulation <= 0 {
		cfg.MaxPopulation = constants.ScanMaxPopulation
	}
	return &Worker{
		repo:       repo,
		eventStore: es,
		cfg:        cfg,
		limiter:    rate.NewLimiter(cfg.TriggerRate, cfg.TriggerBurst),
		results:    cache.New(cfg.ResultTTL, constants.ScanCacheSweepInterval),
	}
}

// Trigger starts a scan in the background and returns its ID immediately.
// At most one scan runs at a time and triggers are rate limited so a stuck
// dashboard refresh cannot hammer the registry table.
func (w *Worker) Trigger(ctx context.Context) (string, error) {
	if !w.limiter.Allow() {
		return "", ErrRateLimited
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return "", ErrScanInProgress
	}
	w.running = true
	w.mu.Unlock()

	scanID := uuid.NewString()
	started := Result{
		ScanID:    scanID,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	w.store(started)

	go w.run(scanID)
	return scanID, nil
}

// Latest returns the most recent scan result if it has not expired.
func (w *Worker) Latest() (*Result, bool) {
	v, ok := w.results.Get(latestKey)
	if !ok {
		return nil, false
	}
	r := v.(Result)
	return &r, true
}

// Get returns a specific scan result by ID if it has not expired.
func (w *Worker) Get(scanID string) (*Result, bool) {
	v, ok := w.results.Get(scanID)
	if !ok {
		return nil, false
	}
	r := v.(Result)
	return &r, true
}

// Running reports whether a scan is currently executing.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// ApplyConfig updates the tunable scan knobs at runtime. The result TTL and
// trigger limiter are fixed at construction; a running scan keeps the config
// it started with.
func (w *Worker) ApplyConfig(minConfidence float64, maxPopulation int, sel matching.FieldSelection) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if minConfidence >= 0 && minConfidence <= 100 {
		w.cfg.MinConfidence = minConfidence
	}
	if maxPopulation > 0 {
		w.cfg.MaxPopulation = maxPopulation
	}
	w.cfg.Selection = sel
}

func (w *Worker) run(scanID string) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.mu.Lock()
	timeout := w.cfg.JobTimeout
	w.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, _ := w.Get(scanID)
	if result == nil {
		result = &Result{ScanID: scanID, Status: StatusRunning, StartedAt: time.Now()}
	}

	if err := w.execute(ctx, result); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		log.Printf("scan %s failed: %v", scanID, err)
	} else {
		result.Status = StatusDone
		log.Printf("scan %s done: population=%d pairs=%d matches=%d",
			scanID, result.Population, result.PairsCompared, len(result.Matches))
	}
	now := time.Now()
	result.FinishedAt = &now
	w.store(*result)
}

func (w *Worker) execute(ctx context.Context, result *Result) error {
	w.mu.Lock()
	cfg := w.cfg
	w.mu.Unlock()

	citizens, err := w.repo.GetActiveCitizensCtx(ctx)
	if err != nil {
		return fmt.Errorf("load active citizens: %w", err)
	}
	if len(citizens) > cfg.MaxPopulation {
		return fmt.Errorf("registry has %d active citizens, scan cap is %d", len(citizens), cfg.MaxPopulation)
	}

	records := make([]matching.PersonRecord, len(citizens))
	for i, c := range citizens {
		records[i] = c.PersonRecord()
	}

	matches, err := matching.FindMatches(records, cfg.Selection, cfg.MinConfidence)
	if err != nil {
		return err
	}

	result.Population = len(citizens)
	result.PairsCompared = len(citizens) * (len(citizens) - 1) / 2
	result.Matches = matches

	w.publishMatches(ctx, citizens, matches)
	return nil
}

// publishMatches appends a detected event per match, attributed to the record
// with the lower index. Event loss is tolerable here since the scan result
// itself is what the review queue consumes.
func (w *Worker) publishMatches(ctx context.Context, citizens []models.Citizen, matches []matching.MatchResult) {
	if w.eventStore == nil {
		return
	}
	for _, m := range matches {
		fields := make([]string, len(m.MatchedFields))
		for i, f := range m.MatchedFields {
			fields[i] = string(f)
		}
		err := w.eventStore.Append(ctx, events.DuplicateDetected{
			Base:          events.Base{Ts: time.Now(), CID: m.RecordA.ID},
			OtherID:       m.RecordB.ID,
			MatchedFields: fields,
			Confidence:    m.ConfidenceScore,
			Source:        "scan",
		})
		if err != nil {
			log.Printf("scan: publish match event for citizen %d: %v", m.RecordA.ID, err)
		}
	}
}

func (w *Worker) store(r Result) {
	w.results.Set(r.ScanID, r, cache.DefaultExpiration)
	w.results.Set(latestKey, r, cache.DefaultExpiration)
}

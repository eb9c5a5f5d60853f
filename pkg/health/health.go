// Package health aggregates component health checks and serves them over a
// dedicated HTTP listener so probes do not share a port with the admin API.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"eca-system/pkg/logging"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ComponentHealth is the result of checking a single component.
type ComponentHealth struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// SystemHealth is the aggregate of all component checks.
type SystemHealth struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     time.Duration              `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// Checker is a single component's health probe.
type Checker interface {
	Check(ctx context.Context) ComponentHealth
	Name() string
}

// CheckFunc adapts a function to the Checker interface.
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) ComponentHealth
}

func NewCheckFunc(name string, fn func(ctx context.Context) ComponentHealth) Checker {
	return CheckFunc{name: name, fn: fn}
}

func (cf CheckFunc) Check(ctx context.Context) ComponentHealth { return cf.fn(ctx) }
func (cf CheckFunc) Name() string                              { return cf.name }

// Manager runs registered checkers and caches the latest results.
type Manager struct {
	checkers  map[string]Checker
	results   map[string]ComponentHealth
	startTime time.Time
	version   string
	timeout   time.Duration
	logger    *logging.ComponentLogger
	mu        sync.RWMutex
}

type Config struct {
	Timeout time.Duration `json:"timeout"`
	Version string        `json:"version"`
}

func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second, Version: "1.0.0"}
}

func NewManager(cfg Config, logger *logging.Logger) *Manager {
	return &Manager{
		checkers:  make(map[string]Checker),
		results:   make(map[string]ComponentHealth),
		startTime: time.Now(),
		version:   cfg.Version,
		timeout:   cfg.Timeout,
		logger:    logger.WithComponent("health"),
	}
}

func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := checker.Name()
	m.checkers[name] = checker
	m.results[name] = ComponentHealth{Name: name, Status: StatusUnknown}
	m.logger.Info("registered health checker", logging.String("checker", name))
}

// CheckAll runs every checker concurrently and returns the aggregate.
func (m *Manager) CheckAll(ctx context.Context) SystemHealth {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	results := make(chan ComponentHealth, len(checkers))
	var wg sync.WaitGroup
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			results <- c.Check(checkCtx)
		}(c)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	components := make(map[string]ComponentHealth)
	for r := range results {
		components[r.Name] = r
		m.mu.Lock()
		m.results[r.Name] = r
		m.mu.Unlock()
	}

	return SystemHealth{
		Status:     overallStatus(components),
		Timestamp:  time.Now(),
		Version:    m.version,
		Uptime:     time.Since(m.startTime),
		Components: components,
	}
}

// Cached returns the last known results without re-running checks.
func (m *Manager) Cached() SystemHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	components := make(map[string]ComponentHealth, len(m.results))
	for name, r := range m.results {
		components[name] = r
	}
	return SystemHealth{
		Status:     overallStatus(components),
		Timestamp:  time.Now(),
		Version:    m.version,
		Uptime:     time.Since(m.startTime),
		Components: components,
	}
}

func overallStatus(components map[string]ComponentHealth) Status {
	if len(components) == 0 {
		return StatusUnknown
	}
	healthy := 0
	degraded := 0
	for _, c := range components {
		switch c.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			degraded++
		case StatusHealthy:
			healthy++
		}
	}
	if degraded > 0 {
		return StatusDegraded
	}
	if healthy == len(components) {
		return StatusHealthy
	}
	return StatusUnknown
}

// DatabaseChecker probes registry database connectivity and pool pressure.
type DatabaseChecker struct {
	db   *sql.DB
	name string
}

func NewDatabaseChecker(db *sql.DB, name string) *DatabaseChecker {
	return &DatabaseChecker{db: db, name: name}
}

func (dc *DatabaseChecker) Name() string { return dc.name }

func (dc *DatabaseChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()
	result := ComponentHealth{
		Name:        dc.name,
		LastChecked: start,
		Metadata:    make(map[string]any),
	}

	if err := dc.db.PingContext(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "database unreachable"
		result.Duration = time.Since(start)
		return result
	}

	var one int
	if err := dc.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		result.Status = StatusDegraded
		result.Error = err.Error()
		result.Message = "database query failed"
	} else {
		result.Status = StatusHealthy
		result.Message = "database reachable"
	}

	stats := dc.db.Stats()
	result.Metadata["open_connections"] = stats.OpenConnections
	result.Metadata["in_use"] = stats.InUse
	result.Metadata["idle"] = stats.Idle
	result.Metadata["wait_count"] = stats.WaitCount
	result.Duration = time.Since(start)
	return result
}

// Server exposes the manager over its own listener.
type Server struct {
	manager *Manager
	server  *http.Server
	logger  *logging.ComponentLogger
}

func NewServer(manager *Manager, addr, basePath string, logger *logging.Logger) *Server {
	if basePath == "" {
		basePath = "/health"
	}
	mux := http.NewServeMux()
	s := &Server{manager: manager, logger: logger.WithComponent("health_server")}

	mux.HandleFunc(basePath, s.handleHealth)
	mux.HandleFunc(basePath+"/live", s.handleLiveness)
	mux.HandleFunc(basePath+"/ready", s.handleReadiness)

	s.server = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) Start() {
	s.logger.Info("starting health server", logging.String("addr", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.manager.CheckAll(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if health.Status == StatusUnhealthy || health.Status == StatusUnknown {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(health)
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "alive",
		"uptime": time.Since(s.manager.startTime).String(),
	})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	health := s.manager.CheckAll(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if health.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status": health.Status,
		"ready":  health.Status != StatusUnhealthy,
	})
}

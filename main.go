package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/time/rate"

	"eca-system/internal/admin"
	"eca-system/internal/auth"
	"eca-system/internal/domain"
	"eca-system/internal/eligibility"
	"eca-system/internal/infrastructure/repository"
	"eca-system/internal/matching"
	"eca-system/internal/registration"
	"eca-system/internal/resolution"
	"eca-system/internal/scan"
	"eca-system/pkg/config"
	"eca-system/pkg/container"
	"eca-system/pkg/database"
	"eca-system/pkg/events"
	"eca-system/pkg/health"
	"eca-system/pkg/logging"
	metricsPkg "eca-system/pkg/metrics"
	"eca-system/pkg/monitoring"
)

func main() {
	c := container.New()

	_ = c.Provide(func() *config.Config { return config.Load() }, true)
	_ = c.Provide(func(cfg *config.Config) (*logging.Logger, error) {
		return logging.NewLogger(logConfigFrom(cfg))
	}, true)
	_ = c.Provide(func(cfg *config.Config) (*database.DB, error) {
		return database.NewWithConfig(cfg.DatabaseURL, cfg)
	}, true)
	_ = c.Provide(func(db *database.DB) domain.Repository { return repository.NewSQLRepository(db) }, true)
	_ = c.Provide(func(db *database.DB) domain.UnitOfWorkFactory { return repository.NewSQLUnitOfWorkFactory(db) }, true)
	_ = c.Provide(func(db *database.DB) (events.EventStore, error) { return events.NewSQLEventStore(db) }, true)
	_ = c.Provide(func(repo domain.Repository) *registration.Service { return registration.NewService(repo) }, true)
	_ = c.Provide(func() *registration.HoldStore { return registration.NewHoldStore(24 * time.Hour) }, true)
	_ = c.Provide(func() *eligibility.Calculator { return eligibility.NewDefault() }, true)
	_ = c.Provide(func(uow domain.UnitOfWorkFactory, es events.EventStore) *resolution.Engine {
		return resolution.NewEngine(uow, es)
	}, true)
	_ = c.Provide(func(repo domain.Repository, es events.EventStore, cfg *config.Config) (*scan.Worker, error) {
		sc, err := scanConfigFrom(cfg)
		if err != nil {
			return nil, err
		}
		return scan.NewWorker(repo, es, sc), nil
	}, true)

	var cfg *config.Config
	if err := c.Resolve(&cfg); err != nil {
		panic("config resolve: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	var logger *logging.Logger
	if err := c.Resolve(&logger); err != nil {
		panic("logger resolve: " + err.Error())
	}
	defer logger.Close()

	monitoring.EnableProfiling(cfg.ProfilingEnabled)
	logger.Info("starting centenarian assistance registry",
		logging.String("env", cfg.Env), logging.String("port", cfg.Port))

	var (
		db       *database.DB
		repo     domain.Repository
		regSvc   *registration.Service
		holds    *registration.HoldStore
		calc     *eligibility.Calculator
		resolver *resolution.Engine
		worker   *scan.Worker
	)
	for _, target := range []any{&db, &repo, &regSvc, &holds, &calc, &resolver, &worker} {
		if err := c.Resolve(target); err != nil {
			logger.Fatal("dependency resolve failed", err)
		}
	}
	defer db.Close()

	if err := c.Invoke(func(es events.EventStore) { admin.SetEventStore(es) }); err != nil {
		logger.Warn("event store unavailable, citizen history disabled", logging.Error(err))
	}

	adminResolver := auth.NewAdminResolver(cfg.AdminIPMap)
	if !adminResolver.IsLoaded() {
		logger.Warn("admin IP map not loaded, all requests will be rejected",
			logging.String("path", cfg.AdminIPMap))
	}

	// Hot reload: scan knobs and the admin allowlist follow the env file.
	watcher := config.NewWatcher(time.Duration(cfg.ConfigReloadIntervalSeconds) * time.Second)
	watcher.Start()
	defer watcher.Close()
	go func() {
		for chg := range watcher.Subscribe() {
			if chg.Err != nil {
				logger.Error("config reload failed", chg.Err)
				continue
			}
			sel, err := fieldSelectionFrom(chg.New.MatchFields)
			if err != nil {
				logger.Error("config reload: bad MATCH_FIELDS", err)
				continue
			}
			worker.ApplyConfig(chg.New.MatchMinConfidence, chg.New.ScanMaxPopulation, sel)
			if err := adminResolver.Reload(); err != nil {
				logger.Error("admin IP map reload failed", err)
			}
			logger.Info("config applied", logging.Any("changed", chg.Fields))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	router := mux.NewRouter()

	var stats *monitoring.RequestStats
	if cfg.MetricsEnabled {
		stats = monitoring.NewRequestStats(512)
		router.Use(monitoring.Middleware(stats, metricsPkg.Default))
	}
	router.Use(auth.NewAdminAuthMiddleware(adminResolver).Handler)

	base := strings.TrimSuffix(cfg.BasePath, "/")
	api := router.PathPrefix(base + "/admin").Subrouter()

	api.HandleFunc("", admin.DashboardHandler(repo, worker)).Methods("GET")
	api.HandleFunc("/citizens", admin.CitizensHandler(repo)).Methods("GET")
	api.HandleFunc("/citizens", admin.RegisterCitizenHandler(regSvc, holds)).Methods("POST")
	api.HandleFunc("/holds", admin.HoldsHandler(holds)).Methods("GET")
	api.HandleFunc("/holds/{id}", admin.DiscardHoldHandler(holds)).Methods("DELETE")
	api.HandleFunc("/citizens/{id}", admin.CitizenDetailHandler(repo)).Methods("GET")
	api.HandleFunc("/citizens/{id}/status", admin.UpdateCitizenStatusHandler(repo)).Methods("POST")

	api.HandleFunc("/scans", admin.TriggerScanHandler(worker)).Methods("POST")
	api.HandleFunc("/scans/latest", admin.LatestScanHandler(worker)).Methods("GET")
	api.HandleFunc("/scans/{id}", admin.ScanResultHandler(worker)).Methods("GET")
	api.HandleFunc("/pairs/resolve", admin.ResolvePairHandler(resolver)).Methods("POST")

	api.HandleFunc("/applications", admin.CreateApplicationHandler(repo, calc)).Methods("POST")
	api.HandleFunc("/applications", admin.ApplicationsHandler(repo)).Methods("GET")
	api.HandleFunc("/applications/{id}/status", admin.UpdateApplicationStatusHandler(repo)).Methods("POST")
	api.HandleFunc("/eligibility", admin.EligibleCitizensHandler(repo, calc)).Methods("GET")

	api.HandleFunc("/stakeholders", admin.StakeholdersHandler(repo)).Methods("GET")
	api.HandleFunc("/stakeholders", admin.CreateStakeholderHandler(repo)).Methods("POST")
	api.HandleFunc("/stakeholders/{id}", admin.UpdateStakeholderHandler(repo)).Methods("PUT")
	api.HandleFunc("/stakeholders/{id}", admin.DeactivateStakeholderHandler(repo)).Methods("DELETE")

	api.HandleFunc("/audit", admin.AuditLogHandler(repo)).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// pprof and Prometheus metrics live on their own port, never exposed
	// through the admin listener.
	var opsServer *http.Server
	if cfg.ProfilingEnabled || cfg.MetricsEnabled {
		opsMux := http.NewServeMux()
		if cfg.ProfilingEnabled {
			monitoring.RegisterPprof(opsMux)
		}
		if cfg.MetricsEnabled {
			opsMux.Handle(cfg.MetricsPath, metricsPkg.Handler())
		}
		opsServer = &http.Server{Addr: ":" + cfg.ProfilingPort, Handler: opsMux}
		go func() {
			logger.Info("ops server starting", logging.String("port", cfg.ProfilingPort))
			if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("ops server error", err)
			}
		}()
	}

	healthMgr := health.NewManager(health.DefaultConfig(), logger)
	healthMgr.Register(health.NewDatabaseChecker(db.Conn(), "database"))
	healthMgr.Register(health.NewCheckFunc("admin_ip_map", func(context.Context) health.ComponentHealth {
		ch := health.ComponentHealth{Name: "admin_ip_map", LastChecked: time.Now()}
		if adminResolver.IsLoaded() {
			ch.Status = health.StatusHealthy
		} else {
			ch.Status = health.StatusUnhealthy
			ch.Message = "allowlist missing, no admin can authenticate"
		}
		return ch
	}))
	healthMgr.Register(health.NewCheckFunc("scan_worker", func(context.Context) health.ComponentHealth {
		ch := health.ComponentHealth{Name: "scan_worker", LastChecked: time.Now(), Status: health.StatusHealthy}
		if worker.Running() {
			ch.Message = "scan in progress"
		}
		return ch
	}))
	healthServer := health.NewServer(healthMgr, ":"+cfg.HealthCheckPort, cfg.HealthCheckPath, logger)
	healthServer.Start()

	if cfg.AlertsEnabled {
		sampler := monitoring.NewSampler(stats, monitoring.AlertThresholds{
			P95Ms:       cfg.AlertP95Ms,
			Goroutines:  cfg.AlertGoroutines,
			MemAllocMB:  cfg.AlertMemAllocMB,
			GCPauseMs:   cfg.AlertGCPauseMs,
			SampleEvery: cfg.AlertSampleEvery,
		}, metricsPkg.Default, logger)
		go sampler.Run(ctx)
	}

	go func() {
		logger.Info("admin server starting", logging.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("admin server error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", err)
	}
	if opsServer != nil {
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("ops server shutdown error", err)
		}
	}
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", err)
	}
	logger.Info("shutdown complete")
}

func logConfigFrom(cfg *config.Config) logging.LogConfig {
	lc := logging.DefaultLogConfig()
	lc.Level = logging.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.EnableFile = cfg.EnableFileLogging
	lc.FilePath = cfg.LogFile
	return lc
}

func scanConfigFrom(cfg *config.Config) (scan.Config, error) {
	sel, err := fieldSelectionFrom(cfg.MatchFields)
	if err != nil {
		return scan.Config{}, err
	}
	sc := scan.DefaultConfig()
	sc.MinConfidence = cfg.MatchMinConfidence
	sc.Selection = sel
	if cfg.ScanResultTTLMinutes > 0 {
		sc.ResultTTL = time.Duration(cfg.ScanResultTTLMinutes) * time.Minute
	}
	if cfg.ScanTriggerRatePerMin > 0 {
		sc.TriggerRate = rate.Limit(cfg.ScanTriggerRatePerMin / 60.0)
	}
	if cfg.ScanTriggerBurst > 0 {
		sc.TriggerBurst = cfg.ScanTriggerBurst
	}
	if cfg.ScanJobTimeoutSeconds > 0 {
		sc.JobTimeout = time.Duration(cfg.ScanJobTimeoutSeconds) * time.Second
	}
	if cfg.ScanMaxPopulation > 0 {
		sc.MaxPopulation = cfg.ScanMaxPopulation
	}
	return sc, nil
}

// fieldSelectionFrom parses MATCH_FIELDS, a comma-separated list of field
// names to compare. Empty means all eight.
func fieldSelectionFrom(raw string) (matching.FieldSelection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return matching.DefaultFieldSelection(), nil
	}
	overrides := map[string]bool{
		string(matching.FieldLastName):      false,
		string(matching.FieldFirstName):     false,
		string(matching.FieldMiddleName):    false,
		string(matching.FieldExtensionName): false,
		string(matching.FieldBirthDate):     false,
		string(matching.FieldBirthMonth):    false,
		string(matching.FieldBirthDay):      false,
		string(matching.FieldBirthYear):     false,
	}
	for _, name := range strings.Split(raw, ",") {
		overrides[strings.TrimSpace(name)] = true
	}
	return matching.FieldSelectionFromMap(overrides)
}

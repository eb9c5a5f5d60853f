package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	Port        string
	BasePath    string
	AdminIPMap  string // path to the yaml admin allowlist

	// Similarity engine knobs
	MatchMinConfidence float64 // emission threshold for scans, 0..100
	MatchFields        string  // comma-separated field names; empty = all eight

	// Scan worker knobs
	ScanResultTTLMinutes  int
	ScanTriggerRatePerMin float64
	ScanTriggerBurst      int
	ScanJobTimeoutSeconds int
	ScanMaxPopulation     int

	// Database performance settings
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBConnMaxIdleTime int // minutes
	DBReadTimeout     time.Duration
	DBWriteTimeout    time.Duration

	// Monitoring and logging settings
	LogLevel          string
	LogFormat         string // "json" or "text"
	LogFile           string
	EnableFileLogging bool

	// Health check settings
	HealthCheckPort string
	HealthCheckPath string

	// Environment & profiling/metrics
	Env              string // development, staging, production
	ProfilingEnabled bool
	ProfilingPort    string
	MetricsEnabled   bool
	MetricsPath      string

	// Performance alerts
	AlertsEnabled    bool
	AlertP95Ms       float64       // trigger when p95 request duration exceeds this (ms)
	AlertGoroutines  int           // trigger when goroutine count exceeds this
	AlertMemAllocMB  float64       // trigger when Alloc exceeds this (MB)
	AlertGCPauseMs   float64       // trigger when last GC pause exceeds this (ms)
	AlertSampleEvery time.Duration // sampling interval

	ConfigReloadIntervalSeconds int
}

func Load() *Config {
	minConfidence, _ := strconv.ParseFloat(getEnv("MATCH_MIN_CONFIDENCE", "50"), 64)

	// Scan worker settings with defaults
	scanTTL, _ := strconv.Atoi(getEnv("SCAN_RESULT_TTL_MINUTES", "15"))
	scanRate, _ := strconv.ParseFloat(getEnv("SCAN_TRIGGER_RATE_PER_MIN", "12"), 64)
	scanBurst, _ := strconv.Atoi(getEnv("SCAN_TRIGGER_BURST", "1"))
	scanTimeout, _ := strconv.Atoi(getEnv("SCAN_JOB_TIMEOUT_SECONDS", "120"))
	scanMaxPop, _ := strconv.Atoi(getEnv("SCAN_MAX_POPULATION", "50000"))

	// Database performance settings with defaults
	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "50"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "15"))
	dbConnMaxLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbConnMaxIdleTime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_IDLE_TIME_MINUTES", "5"))
	dbReadTO, _ := time.ParseDuration(getEnv("DB_READ_TIMEOUT", "8s"))
	dbWriteTO, _ := time.ParseDuration(getEnv("DB_WRITE_TIMEOUT", "6s"))

	enableFileLogging, _ := strconv.ParseBool(getEnv("ENABLE_FILE_LOGGING", "false"))

	// Environment and profiling defaults
	env := strings.ToLower(getEnv("ENV", "development"))
	profPort := getEnv("PROFILING_PORT", "6060")
	metricsPath := getEnv("METRICS_PATH", "/metrics")

	// Default toggles based on env
	profilingDefault := env == "development" || env == "staging"
	profilingEnabled, _ := strconv.ParseBool(getEnv("PROFILING_ENABLED", strconv.FormatBool(profilingDefault)))
	metricsEnabled, _ := strconv.ParseBool(getEnv("METRICS_ENABLED", strconv.FormatBool(profilingDefault)))

	// Alerts defaults
	alertsEnabled, _ := strconv.ParseBool(getEnv("ALERTS_ENABLED", strconv.FormatBool(profilingDefault)))
	alertP95Ms, _ := strconv.ParseFloat(getEnv("ALERT_P95_MS", "500"), 64)
	alertGoroutines, _ := strconv.Atoi(getEnv("ALERT_GOROUTINES", "500"))
	alertMemAllocMB, _ := strconv.ParseFloat(getEnv("ALERT_MEM_ALLOC_MB", "512"), 64)
	alertGCPauseMs, _ := strconv.ParseFloat(getEnv("ALERT_GC_PAUSE_MS", "200"), 64)
	alertSampleEverySec, _ := strconv.Atoi(getEnv("ALERT_SAMPLE_EVERY_SEC", "5"))

	reloadIntSec, _ := strconv.Atoi(getEnv("CONFIG_RELOAD_INTERVAL_SECONDS", "2"))

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		BasePath:    getEnv("BASE_PATH", "/"),
		AdminIPMap:  getEnv("ADMIN_IP_MAP", "./admins.yaml"),

		MatchMinConfidence: minConfidence,
		MatchFields:        getEnv("MATCH_FIELDS", ""),

		ScanResultTTLMinutes:  scanTTL,
		ScanTriggerRatePerMin: scanRate,
		ScanTriggerBurst:      scanBurst,
		ScanJobTimeoutSeconds: scanTimeout,
		ScanMaxPopulation:     scanMaxPop,

		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBConnMaxIdleTime: dbConnMaxIdleTime,
		DBReadTimeout:     dbReadTO,
		DBWriteTimeout:    dbWriteTO,

		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		LogFile:           getEnv("LOG_FILE", "/var/log/eca-system/app.log"),
		EnableFileLogging: enableFileLogging,

		HealthCheckPort: getEnv("HEALTH_CHECK_PORT", "8081"),
		HealthCheckPath: getEnv("HEALTH_CHECK_PATH", "/health"),

		Env:              env,
		ProfilingEnabled: profilingEnabled,
		ProfilingPort:    profPort,
		MetricsEnabled:   metricsEnabled,
		MetricsPath:      metricsPath,

		AlertsEnabled:    alertsEnabled,
		AlertP95Ms:       alertP95Ms,
		AlertGoroutines:  alertGoroutines,
		AlertMemAllocMB:  alertMemAllocMB,
		AlertGCPauseMs:   alertGCPauseMs,
		AlertSampleEvery: time.Duration(alertSampleEverySec) * time.Second,

		ConfigReloadIntervalSeconds: reloadIntSec,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	errs "eca-system/pkg/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

// ConfigValidator collects validation errors across checks
type ConfigValidator struct {
	errors []ValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{errors: make([]ValidationError, 0)}
}

func (cv *ConfigValidator) AddError(field, value, message string) {
	cv.errors = append(cv.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (cv *ConfigValidator) HasErrors() bool { return len(cv.errors) > 0 }

func (cv *ConfigValidator) GetErrors() []ValidationError { return cv.errors }

func (cv *ConfigValidator) GetErrorsAsString() string {
	var errorStrings []string
	for _, err := range cv.errors {
		errorStrings = append(errorStrings, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()

	c.validateRequired(validator)
	c.validateFormats(validator)
	c.validateRanges(validator)
	c.validateEnvironment(validator)

	if validator.HasErrors() {
		return errs.NewValidation("config.Validate", fmt.Sprintf("configuration validation failed:\n%s", validator.GetErrorsAsString()), nil)
	}
	return nil
}

func (c *Config) validateRequired(validator *ConfigValidator) {
	if c.DatabaseURL == "" {
		validator.AddError("DATABASE_URL", c.DatabaseURL, "database URL is required")
	}
	if c.Port == "" {
		validator.AddError("PORT", c.Port, "port is required")
	}
}

func (c *Config) validateFormats(validator *ConfigValidator) {
	if c.DatabaseURL != "" {
		if !strings.Contains(c.DatabaseURL, "@") || !strings.Contains(c.DatabaseURL, "/") {
			validator.AddError("DATABASE_URL", c.DatabaseURL, "invalid database URL format")
		}
	}

	if c.Port != "" {
		if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
			validator.AddError("PORT", c.Port, "invalid port number (must be 1-65535)")
		}
	}

	if c.HealthCheckPort != "" {
		if port, err := strconv.Atoi(c.HealthCheckPort); err != nil || port < 1 || port > 65535 {
			validator.AddError("HEALTH_CHECK_PORT", c.HealthCheckPort, "invalid health check port number")
		}
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		validator.AddError("LOG_LEVEL", c.LogLevel, "invalid log level (must be one of: trace, debug, info, warn, error, fatal)")
	}

	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		validator.AddError("LOG_FORMAT", c.LogFormat, "invalid log format (must be 'json' or 'text')")
	}
}

func (c *Config) validateRanges(validator *ConfigValidator) {
	// Threshold outside 0..100 is rejected here too, matching the engine.
	if c.MatchMinConfidence < 0 || c.MatchMinConfidence > 100 {
		validator.AddError("MATCH_MIN_CONFIDENCE", fmt.Sprintf("%.2f", c.MatchMinConfidence), "confidence threshold must be between 0 and 100")
	}

	if c.ScanResultTTLMinutes < 1 || c.ScanResultTTLMinutes > 1440 {
		validator.AddError("SCAN_RESULT_TTL_MINUTES", strconv.Itoa(c.ScanResultTTLMinutes), "scan result TTL must be between 1 and 1440 minutes")
	}
	if c.ScanTriggerRatePerMin <= 0 {
		validator.AddError("SCAN_TRIGGER_RATE_PER_MIN", fmt.Sprintf("%.2f", c.ScanTriggerRatePerMin), "scan trigger rate must be positive")
	}
	if c.ScanTriggerBurst < 1 {
		validator.AddError("SCAN_TRIGGER_BURST", strconv.Itoa(c.ScanTriggerBurst), "scan trigger burst must be at least 1")
	}
	if c.ScanJobTimeoutSeconds < 1 {
		validator.AddError("SCAN_JOB_TIMEOUT_SECONDS", strconv.Itoa(c.ScanJobTimeoutSeconds), "scan job timeout must be at least 1 second")
	}
	if c.ScanMaxPopulation < 1 {
		validator.AddError("SCAN_MAX_POPULATION", strconv.Itoa(c.ScanMaxPopulation), "scan population cap must be at least 1")
	}

	if c.DBMaxOpenConns < 1 || c.DBMaxOpenConns > 1000 {
		validator.AddError("DB_MAX_OPEN_CONNS", strconv.Itoa(c.DBMaxOpenConns), "max open connections must be between 1 and 1000")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		validator.AddError("DB_MAX_IDLE_CONNS", strconv.Itoa(c.DBMaxIdleConns), "max idle connections must be between 0 and max open connections")
	}
	if c.DBConnMaxLifetime < 1 || c.DBConnMaxLifetime > 60 {
		validator.AddError("DB_CONN_MAX_LIFETIME_MINUTES", strconv.Itoa(c.DBConnMaxLifetime), "connection max lifetime must be between 1 and 60 minutes")
	}
	if c.DBConnMaxIdleTime < 1 || c.DBConnMaxIdleTime > 30 {
		validator.AddError("DB_CONN_MAX_IDLE_TIME_MINUTES", strconv.Itoa(c.DBConnMaxIdleTime), "connection max idle time must be between 1 and 30 minutes")
	}
}

func (c *Config) validateEnvironment(validator *ConfigValidator) {
	if c.EnableFileLogging && c.LogFile != "" {
		if err := checkDirectoryWritable(c.LogFile); err != nil {
			validator.AddError("LOG_FILE", c.LogFile, fmt.Sprintf("log directory is not writable: %v", err))
		}
	}

	ports := map[string]string{
		"PORT":              c.Port,
		"HEALTH_CHECK_PORT": c.HealthCheckPort,
	}
	usedPorts := make(map[string]string)
	for name, port := range ports {
		if port != "" && port != "0" {
			if existing, exists := usedPorts[port]; exists {
				validator.AddError(name, port, fmt.Sprintf("port conflict with %s", existing))
			} else {
				usedPorts[port] = name
			}
		}
	}
}

// checkDirectoryWritable checks if a directory is writable
func checkDirectoryWritable(filePath string) error {
	dir := filePath
	if !strings.HasSuffix(filePath, "/") {
		lastSlash := strings.LastIndex(filePath, "/")
		if lastSlash > 0 {
			dir = filePath[:lastSlash]
		} else {
			dir = "."
		}
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.NewValidation("config.checkDirectoryWritable", "cannot create directory", err)
		}
	}

	tempFile := fmt.Sprintf("%s/.write_test_%d", dir, os.Getpid())
	file, err := os.Create(tempFile)
	if err != nil {
		return errs.NewValidation("config.checkDirectoryWritable", "directory is not writable", err)
	}
	file.Close()
	os.Remove(tempFile)

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfigSummary returns a summary of the configuration (excluding sensitive data)
func (c *Config) GetConfigSummary() map[string]interface{} {
	return map[string]interface{}{
		"database_url":         maskString(c.DatabaseURL, 20),
		"port":                 c.Port,
		"match_min_confidence": c.MatchMinConfidence,
		"match_fields":         c.MatchFields,
		"scan_result_ttl_min":  c.ScanResultTTLMinutes,
		"scan_max_population":  c.ScanMaxPopulation,
		"db_max_open_conns":    c.DBMaxOpenConns,
		"db_max_idle_conns":    c.DBMaxIdleConns,
		"log_level":            c.LogLevel,
		"log_format":           c.LogFormat,
		"log_file":             c.LogFile,
		"enable_file_logging":  c.EnableFileLogging,
		"health_check_port":    c.HealthCheckPort,
		"admin_ip_map":         c.AdminIPMap,
	}
}

// maskString masks sensitive strings for logging/display
func maskString(s string, keepFirst int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepFirst {
		return strings.Repeat("*", len(s))
	}
	return s[:keepFirst] + strings.Repeat("*", len(s)-keepFirst)
}

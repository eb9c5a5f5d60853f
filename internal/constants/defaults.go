package constants

import "time"

// Centralized default values for timeouts, intervals, and related settings.
// These provide sane defaults; environment/config may override where supported.

const (
	// Database
	DBReadTimeoutDefault  = 8 * time.Second
	DBWriteTimeoutDefault = 6 * time.Second

	// Registry scan worker
	ScanResultTTLDefault    = 15 * time.Minute
	ScanTriggerRateDefault  = 0.2 // scans per second allowed (one per 5s)
	ScanTriggerBurstDefault = 1
	ScanJobTimeoutDefault   = 2 * time.Minute
	ScanCacheSweepInterval  = 5 * time.Minute

	// Config watcher
	ConfigWatcherIntervalDefault = 2 * time.Second

	// App shutdown
	GracefulShutdownTimeoutDefault = 10 * time.Second
)

// Package monitoring wires request timing, runtime sampling, and pprof into
// the registry service. Request durations feed the shared metrics registry;
// a background sampler watches goroutine count, heap, and GC pauses and logs
// alerts when they cross configured thresholds.
package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	pp "net/http/pprof"

	"eca-system/pkg/logging"
	"eca-system/pkg/metrics"
)

// RequestStats keeps a circular buffer of recent request durations so the
// alert sampler can compute a p95 without a full histogram walk.
type RequestStats struct {
	mu        sync.Mutex
	durations []float64 // milliseconds
	idx       int
	count     int64
	n         int
}

func NewRequestStats(capacity int) *RequestStats {
	if capacity <= 0 {
		capacity = 256
	}
	return &RequestStats{durations: make([]float64, capacity), n: capacity}
}

func (s *RequestStats) Observe(ms float64) {
	s.mu.Lock()
	s.durations[s.idx] = ms
	s.idx = (s.idx + 1) % s.n
	s.count++
	s.mu.Unlock()
}

// Snapshot returns the total count plus avg/p50/p95 over recent samples.
func (s *RequestStats) Snapshot() (count int64, avg, p50, p95 float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var samples []float64
	if s.count < int64(s.n) {
		samples = append(samples, s.durations[:s.idx]...)
	} else {
		samples = append(samples, s.durations...)
	}
	if len(samples) == 0 {
		return s.count, 0, 0, 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	avg = sum / float64(len(samples))
	cp := make([]float64, len(samples))
	copy(cp, samples)
	sort.Float64s(cp)
	p50 = cp[(len(cp)*50)/100]
	p95 = cp[(len(cp)*95)/100]
	return s.count, avg, p50, p95
}

type statusWriter struct {
	w          http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) Header() http.Header         { return sw.w.Header() }
func (sw *statusWriter) Write(b []byte) (int, error) { return sw.w.Write(b) }
func (sw *statusWriter) WriteHeader(statusCode int) {
	sw.statusCode = statusCode
	sw.w.WriteHeader(statusCode)
}

// Middleware measures request duration and outcome. Durations land in both
// the stats buffer (for alerting) and the metrics registry (for scraping).
func Middleware(stats *RequestStats, reg *metrics.Registry) func(http.Handler) http.Handler {
	if reg == nil {
		reg = metrics.Default
	}
	total := reg.Counter("http_requests_total", "Total HTTP requests served.")
	errors := reg.Counter("http_request_errors_total", "HTTP responses with status >= 500.")
	hist := reg.Histogram("http_request_duration_seconds", "HTTP request duration.",
		[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{w: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			total.Inc(1)
			if sw.statusCode >= 500 {
				errors.Inc(1)
			}
			hist.Observe(elapsed.Seconds())
			if stats != nil {
				stats.Observe(elapsed.Seconds() * 1000.0)
			}
		})
	}
}

// RegisterPprof mounts the standard pprof handlers under /debug/pprof/.
func RegisterPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pp.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pp.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pp.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pp.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pp.Trace)
	mux.Handle("/debug/pprof/goroutine", pp.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pp.Handler("heap"))
	mux.Handle("/debug/pprof/block", pp.Handler("block"))
	mux.Handle("/debug/pprof/mutex", pp.Handler("mutex"))
}

// EnableProfiling toggles block and mutex profiling rates.
func EnableProfiling(enabled bool) {
	if enabled {
		runtime.SetBlockProfileRate(1)
		runtime.SetMutexProfileFraction(5)
	} else {
		runtime.SetBlockProfileRate(0)
		runtime.SetMutexProfileFraction(0)
	}
}

// AlertThresholds are the sampler's trip points. Zero disables a check.
type AlertThresholds struct {
	P95Ms       float64
	Goroutines  int
	MemAllocMB  float64
	GCPauseMs   float64
	SampleEvery time.Duration
}

// Sampler periodically reads runtime stats, publishes them as gauges, and
// logs a warning for every threshold currently exceeded.
type Sampler struct {
	stats      *RequestStats
	thresholds AlertThresholds
	logger     *logging.ComponentLogger

	gGoroutines *metrics.Gauge
	gHeapAlloc  *metrics.Gauge
	gGCPause    *metrics.Gauge
}

func NewSampler(stats *RequestStats, thresholds AlertThresholds, reg *metrics.Registry, logger *logging.Logger) *Sampler {
	if reg == nil {
		reg = metrics.Default
	}
	if thresholds.SampleEvery <= 0 {
		thresholds.SampleEvery = 15 * time.Second
	}
	return &Sampler{
		stats:       stats,
		thresholds:  thresholds,
		logger:      logger.WithComponent("monitoring"),
		gGoroutines: reg.Gauge("runtime_goroutines", "Current goroutine count."),
		gHeapAlloc:  reg.Gauge("runtime_heap_alloc_bytes", "Bytes of allocated heap objects."),
		gGCPause:    reg.Gauge("runtime_gc_last_pause_seconds", "Duration of the most recent GC pause."),
	}
}

// Run samples until the context is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.thresholds.SampleEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	goroutines := runtime.NumGoroutine()
	lastPause := time.Duration(ms.PauseNs[(ms.NumGC+255)%256])

	s.gGoroutines.SetFloat64(float64(goroutines))
	s.gHeapAlloc.SetFloat64(float64(ms.Alloc))
	s.gGCPause.SetFloat64(lastPause.Seconds())

	if s.thresholds.Goroutines > 0 && goroutines > s.thresholds.Goroutines {
		s.logger.Warn("goroutine count above threshold",
			logging.Int("goroutines", goroutines),
			logging.Int("threshold", s.thresholds.Goroutines))
	}
	allocMB := float64(ms.Alloc) / (1024 * 1024)
	if s.thresholds.MemAllocMB > 0 && allocMB > s.thresholds.MemAllocMB {
		s.logger.Warn("heap allocation above threshold",
			logging.Float64("alloc_mb", allocMB),
			logging.Float64("threshold_mb", s.thresholds.MemAllocMB))
	}
	pauseMs := float64(lastPause) / float64(time.Millisecond)
	if s.thresholds.GCPauseMs > 0 && pauseMs > s.thresholds.GCPauseMs {
		s.logger.Warn("GC pause above threshold",
			logging.Float64("pause_ms", pauseMs),
			logging.Float64("threshold_ms", s.thresholds.GCPauseMs))
	}
	if s.stats != nil && s.thresholds.P95Ms > 0 {
		if _, _, _, p95 := s.stats.Snapshot(); p95 > s.thresholds.P95Ms {
			s.logger.Warn("request p95 above threshold",
				logging.Float64("p95_ms", p95),
				logging.Float64("threshold_ms", s.thresholds.P95Ms))
		}
	}
}

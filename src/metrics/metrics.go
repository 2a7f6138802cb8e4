// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package metrics provides Prometheus metrics.
// All metrics follow Prometheus naming conventions with fixmyphone_ prefix.
package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds metrics configuration
type Config struct {
	// Enabled controls whether metrics are active
	Enabled bool
	// Endpoint path for metrics (default: /metrics)
	Endpoint string
	// IncludeRuntime includes Go runtime metrics
	IncludeRuntime bool
	// Token for optional bearer token authentication
	Token string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		Endpoint:       "/metrics",
		IncludeRuntime: true,
		Token:          "",
	}
}

var (
	mu        sync.RWMutex
	config    Config
	startTime time.Time
	lastGC    uint32

	// Application metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fixmyphone_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "build_date", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_app_start_timestamp",
			Help: "Application start timestamp",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyphone_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fixmyphone_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)

	// Offline cache controller metrics
	WorkerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyphone_worker_requests_total",
			Help: "Requests handled by the cache controller, by strategy and response source",
		},
		[]string{"strategy", "source"},
	)

	WorkerOfflineFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyphone_worker_offline_fallbacks_total",
			Help: "Synthesized or offline-page responses served, by strategy",
		},
		[]string{"strategy"},
	)

	CacheStoreEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fixmyphone_cache_store_entries",
			Help: "Entries per named cache store",
		},
		[]string{"store"},
	)

	CacheStoresPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixmyphone_cache_stores_purged_total",
			Help: "Stale cache stores deleted at activation",
		},
	)

	// Background sync metrics
	SyncQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_sync_queue_depth",
			Help: "Offline submissions waiting for retry",
		},
	)

	SyncDrainTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyphone_sync_drain_total",
			Help: "Background sync item results",
		},
		[]string{"result"},
	)

	// Connectivity state: 1 when the origin is reachable, 0 when not
	ConnectivityOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_connectivity_online",
			Help: "Whether the origin is currently reachable",
		},
	)

	// Notification metrics
	NotificationsShownTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyphone_notifications_shown_total",
			Help: "Notifications dispatched, by outcome",
		},
		[]string{"outcome"},
	)

	// Rate limiting metrics
	RateLimitBlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixmyphone_ratelimit_blocked_total",
			Help: "Requests blocked by rate limiter",
		},
		[]string{"limit"},
	)

	// Go runtime metrics (if include_runtime: true)
	GoGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_go_goroutines",
			Help: "Current number of goroutines",
		},
	)

	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_go_mem_alloc_bytes",
			Help: "Bytes allocated and in use (heap)",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixmyphone_go_mem_sys_bytes",
			Help: "Total bytes obtained from system",
		},
	)

	GoGCRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixmyphone_go_gc_runs_total",
			Help: "Total garbage collection runs",
		},
	)
)

// Init configures the package and starts background collectors.
func Init(cfg Config, version, commit, buildDate string) {
	mu.Lock()
	defer mu.Unlock()

	config = cfg
	startTime = time.Now()

	if !cfg.Enabled {
		return
	}

	AppInfo.WithLabelValues(version, commit, buildDate, runtime.Version()).Set(1)
	AppStartTime.SetToCurrentTime()

	go updateUptimeLoop()

	if cfg.IncludeRuntime {
		go collectRuntimeMetricsLoop()
	}
}

// updateUptimeLoop updates the uptime metric every second
func updateUptimeLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		mu.RLock()
		if !config.Enabled {
			mu.RUnlock()
			return
		}
		mu.RUnlock()

		AppUptime.Set(time.Since(startTime).Seconds())
	}
}

// collectRuntimeMetricsLoop collects Go runtime metrics every 15 seconds
func collectRuntimeMetricsLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		mu.RLock()
		if !config.Enabled || !config.IncludeRuntime {
			mu.RUnlock()
			return
		}
		mu.RUnlock()

		collectRuntimeMetrics()
	}
}

func collectRuntimeMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	GoGoroutines.Set(float64(runtime.NumGoroutine()))
	GoMemAllocBytes.Set(float64(m.Alloc))
	GoMemSysBytes.Set(float64(m.Sys))

	if m.NumGC > lastGC {
		GoGCRunsTotal.Add(float64(m.NumGC - lastGC))
		lastGC = m.NumGC
	}
}

// Handler returns the Prometheus metrics HTTP handler with optional auth
func Handler(cfg Config) http.Handler {
	promHandler := promhttp.Handler()

	if cfg.Token == "" {
		return promHandler
	}

	// Wrap with token authentication
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		expected := "Bearer " + cfg.Token

		if auth != expected {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		promHandler.ServeHTTP(w, r)
	})
}

// ResponseWriter wraps http.ResponseWriter to capture status and size
type ResponseWriter struct {
	http.ResponseWriter
	Status int
	Size   int
}

// WriteHeader captures the status code
func (rw *ResponseWriter) WriteHeader(status int) {
	rw.Status = status
	rw.ResponseWriter.WriteHeader(status)
}

// Write captures the response size
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.Size += n
	return n, err
}

// NewResponseWriter creates a new metrics response writer
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		Status:         http.StatusOK,
	}
}

// Middleware creates HTTP metrics middleware
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics endpoint itself
			if r.URL.Path == cfg.Endpoint {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			HTTPActiveRequests.Inc()
			defer HTTPActiveRequests.Dec()

			rw := NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.Status)

			HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RecordRateLimit records a blocked request
func RecordRateLimit(limitType string) {
	mu.RLock()
	enabled := config.Enabled
	mu.RUnlock()
	if !enabled {
		return
	}
	RateLimitBlockedTotal.WithLabelValues(limitType).Inc()
}

// SetConnectivity updates the connectivity gauge.
func SetConnectivity(online bool) {
	if online {
		ConnectivityOnline.Set(1)
	} else {
		ConnectivityOnline.Set(0)
	}
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return config.Enabled
}

// GetConfig returns the active metrics configuration.
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return config
}

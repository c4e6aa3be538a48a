// Package metrics provides Prometheus metrics for the proctoring engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the monitoring pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Sampling metrics
	framesSampled         prometheus.Counter
	framesProcessed       prometheus.Counter
	framesSkippedBusy     prometheus.Counter
	framesSkippedNotReady prometheus.Counter

	// Detection metrics
	detectionLatency prometheus.Histogram
	detectionErrors  *prometheus.CounterVec

	// Violation metrics
	violationsEmitted    *prometheus.CounterVec
	violationsSuppressed *prometheus.CounterVec
	objectCooldownHits   prometheus.Counter
	pendingTimers        prometheus.Gauge
	cooldownEntries      prometheus.Gauge

	// Session metrics
	integrityScore   prometheus.Gauge
	violationCount   prometheus.Gauge
	sessionRecording prometheus.Gauge

	// Notification metrics
	notifySubscribers prometheus.Gauge
	notifyDropped     prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "proctorai",
		subsystem:        "monitor",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesSampled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_sampled_total",
		Help:      "Total number of sampling ticks that captured a frame",
	})

	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_processed_total",
		Help:      "Total number of frames that completed rule evaluation",
	})

	m.framesSkippedBusy = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_skipped_busy_total",
		Help:      "Total number of sampling ticks skipped because the previous detection cycle was still in flight",
	})

	m.framesSkippedNotReady = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_skipped_not_ready_total",
		Help:      "Total number of sampling ticks skipped because the source had no decoded frame",
	})

	m.detectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detection_latency_milliseconds",
		Help:      "Histogram of capture-to-verdict latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.detectionErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "detection_errors_total",
			Help:      "Total number of per-frame detection backend errors",
		},
		[]string{"backend", "capability"},
	)

	m.violationsEmitted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "violations_emitted_total",
			Help:      "Total number of violations appended to the session timeline",
		},
		[]string{"type", "severity"},
	)

	m.violationsSuppressed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "violations_suppressed_total",
			Help:      "Total number of violations suppressed by the type-level cooldown",
		},
		[]string{"type"},
	)

	m.objectCooldownHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "object_cooldown_hits_total",
		Help:      "Total number of object detections suppressed by the per-label cooldown",
	})

	m.pendingTimers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_debounce_timers",
		Help:      "Number of armed debounce timers",
	})

	m.cooldownEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cooldown_ledger_entries",
		Help:      "Number of keys tracked across cooldown ledgers",
	})

	m.integrityScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "integrity_score",
		Help:      "Current session integrity score (0-100)",
	})

	m.violationCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "violation_count",
		Help:      "Number of violations in the current session timeline",
	})

	m.sessionRecording = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_recording",
		Help:      "Whether a monitoring session is currently recording (1) or not (0)",
	})

	m.notifySubscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_subscribers",
		Help:      "Number of active violation event subscribers",
	})

	m.notifyDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_dropped_total",
		Help:      "Total number of violation events dropped on full subscriber buffers",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers operating on the global manager.

func RecordFrameSampled() {
	globalManager.framesSampled.Inc()
}

func RecordFrameProcessed() {
	globalManager.framesProcessed.Inc()
}

func RecordFrameSkippedBusy() {
	globalManager.framesSkippedBusy.Inc()
}

func RecordFrameSkippedNotReady() {
	globalManager.framesSkippedNotReady.Inc()
}

func RecordDetectionLatency(latencyMs float64) {
	globalManager.detectionLatency.Observe(latencyMs)
}

func RecordDetectionError(backend, capability string) {
	globalManager.detectionErrors.WithLabelValues(backend, capability).Inc()
}

func RecordViolation(violationType, severity string) {
	globalManager.violationsEmitted.WithLabelValues(violationType, severity).Inc()
}

func RecordViolationSuppressed(violationType string) {
	globalManager.violationsSuppressed.WithLabelValues(violationType).Inc()
}

func RecordObjectCooldownHit() {
	globalManager.objectCooldownHits.Inc()
}

func UpdatePendingTimers(count int) {
	globalManager.pendingTimers.Set(float64(count))
}

func UpdateCooldownEntries(count int64) {
	globalManager.cooldownEntries.Set(float64(count))
}

func UpdateIntegrityScore(score int) {
	globalManager.integrityScore.Set(float64(score))
}

func UpdateViolationCount(count int) {
	globalManager.violationCount.Set(float64(count))
}

func UpdateSessionRecording(recording bool) {
	if recording {
		globalManager.sessionRecording.Set(1)
		return
	}
	globalManager.sessionRecording.Set(0)
}

func UpdateNotifySubscribers(count int) {
	globalManager.notifySubscribers.Set(float64(count))
}

func RecordNotifyDropped() {
	globalManager.notifyDropped.Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the match editor service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Save modes and results used as label values.
const (
	SaveModeSilent   = "silent"
	SaveModeManual   = "manual"
	SaveModeFinalize = "finalize"

	SaveResultSuccess = "success"
	SaveResultFailure = "failure"
	SaveResultSkipped = "skipped"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Persistence
	saves              *prometheus.CounterVec
	saveLatency        *prometheus.HistogramVec
	debounceReschedule prometheus.Counter

	// Editing
	goalsRecorded     *prometheus.CounterVec
	goalsRemoved      prometheus.Counter
	statusTransitions *prometheus.CounterVec
	placeholders      prometheus.Counter
	reconstructExcess prometheus.Counter
	openSessions      prometheus.Gauge

	// Backend client
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pelada",
		subsystem:        "editor",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.saves = auto.NewCounterVec(m.counterOpts("saves_total",
		"Result writes by mode (silent, manual, finalize) and result (success, failure, skipped)"),
		[]string{"mode", "result"})
	m.saveLatency = auto.NewHistogramVec(m.histogramOpts("save_latency_milliseconds",
		"Latency of result writes to the backend"),
		[]string{"mode"})
	m.debounceReschedule = auto.NewCounter(m.counterOpts("debounce_reschedules_total",
		"Pending silent saves cancelled by a newer edit"))

	m.goalsRecorded = auto.NewCounterVec(m.counterOpts("goals_recorded_total",
		"Goals added during editing by scorer kind"),
		[]string{"kind"})
	m.goalsRemoved = auto.NewCounter(m.counterOpts("goals_removed_total",
		"Goals removed during editing"))
	m.statusTransitions = auto.NewCounterVec(m.counterOpts("status_transitions_total",
		"Match status transitions"),
		[]string{"from", "to", "trigger"})
	m.placeholders = auto.NewCounter(m.counterOpts("placeholders_total",
		"Placeholder goals inserted to reach the official score"))
	m.reconstructExcess = auto.NewCounter(m.counterOpts("reconstruct_excess_total",
		"Teams whose stored aggregates exceed the official score at open time"))
	m.openSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "open_sessions",
		Help:        "Editing sessions currently open",
		ConstLabels: m.constLabels,
	})

	m.backendRequests = auto.NewCounterVec(m.counterOpts("backend_requests_total",
		"Requests sent to the results backend"),
		[]string{"operation", "status_code"})
	m.backendLatency = auto.NewHistogramVec(m.histogramOpts("backend_latency_milliseconds",
		"Latency of results backend requests"),
		[]string{"operation"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: m.constLabels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutines",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause time",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
		ConstLabels: m.constLabels,
	})
}

// RecordSave counts a result write.
func RecordSave(mode, result string) {
	globalManager.saves.WithLabelValues(mode, result).Inc()
}

// RecordSaveLatency records the latency of a result write in milliseconds.
func RecordSaveLatency(mode string, latencyMs float64) {
	globalManager.saveLatency.WithLabelValues(mode).Observe(latencyMs)
}

// RecordDebounceReschedule counts a pending silent save replaced by a newer one.
func RecordDebounceReschedule() {
	globalManager.debounceReschedule.Inc()
}

// RecordGoal counts an added goal.
func RecordGoal(kind string) {
	globalManager.goalsRecorded.WithLabelValues(kind).Inc()
}

// RecordGoalRemoved counts a removed goal.
func RecordGoalRemoved() {
	globalManager.goalsRemoved.Inc()
}

// RecordStatusTransition counts a status change.
func RecordStatusTransition(from, to, trigger string) {
	globalManager.statusTransitions.WithLabelValues(from, to, trigger).Inc()
}

// RecordPlaceholders counts inserted placeholder goals.
func RecordPlaceholders(n int) {
	globalManager.placeholders.Add(float64(n))
}

// RecordReconstructExcess counts a team whose aggregates exceed its official score.
func RecordReconstructExcess() {
	globalManager.reconstructExcess.Inc()
}

// UpdateOpenSessions sets the number of open sessions.
func UpdateOpenSessions(n int) {
	globalManager.openSessions.Set(float64(n))
}

// RecordBackendRequest counts a backend request and its latency.
func RecordBackendRequest(operation, statusCode string, latencyMs float64) {
	globalManager.backendRequests.WithLabelValues(operation, statusCode).Inc()
	globalManager.backendLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime observes an average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the btrank rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the btrank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics - analysis pipeline throughput
	analysesSubmitted prometheus.Counter
	analysesDuplicate prometheus.Counter
	analysesCompleted prometheus.Counter
	analysesFailed    prometheus.Counter

	// Engine Metrics - per-stage timings and diagnostics
	fitDuration         prometheus.Histogram
	sampleDuration      prometheus.Histogram
	convergenceDuration prometheus.Histogram
	parseDuration       prometheus.Histogram
	fitIterations       prometheus.Histogram
	matchesPerAnalysis  prometheus.Histogram
	acceptanceRate      prometheus.Gauge

	// Operational Health Metrics
	queueSize      prometheus.Gauge
	workerCount    prometheus.Gauge
	analysesStored prometheus.Gauge

	// Queue Metrics
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "btrank",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric inventory is intentionally exhaustive
	auto := promauto.With(m.registry)

	m.analysesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_submitted_total",
		Help:      "Total number of rating analyses submitted",
	})
	m.analysesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_duplicate_total",
		Help:      "Total number of submissions answered from an existing analysis",
	})
	m.analysesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_completed_total",
		Help:      "Total number of analyses completed successfully",
	})
	m.analysesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_failed_total",
		Help:      "Total number of analyses that failed",
	})

	m.fitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_duration_ms",
		Help:      "MLE fit duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.sampleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sample_duration_ms",
		Help:      "MCMC sampling duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.convergenceDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "convergence_duration_ms",
		Help:      "Convergence trace duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.parseDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "parse_duration_ms",
		Help:      "CSV parse duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.fitIterations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_iterations",
		Help:      "MM iterations needed per fit",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})
	m.matchesPerAnalysis = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_per_analysis",
		Help:      "Match count per submitted analysis",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})
	m.acceptanceRate = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mcmc_acceptance_rate",
		Help:      "Acceptance rate of the most recent MCMC run",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of queued analysis jobs",
	})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of configured analysis workers",
	})
	m.analysesStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_stored",
		Help:      "Number of analyses currently held in the store",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum capacity of the job queue",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue utilization as a percentage (0-1)",
	})
	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of jobs enqueued",
	})
	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of jobs dequeued",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of enqueue errors",
	})
	m.queueProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_processing_latency_ms",
		Help:      "Queue processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active workers",
	})
	m.workerIdleCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_idle_count",
		Help:      "Number of idle workers",
	})
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_ms",
		Help:      "End-to-end job processing latency in milliseconds",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
	})
	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker errors",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total errors by component",
	}, []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Total errors by type and severity",
	}, []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_ms",
		Help:      "Latency of failed operations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_ms",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Business metric helpers.

// RecordAnalysisSubmitted increments the submitted-analyses counter.
func RecordAnalysisSubmitted() {
	globalManager.analysesSubmitted.Inc()
}

// RecordAnalysisDuplicate increments the duplicate-submission counter.
func RecordAnalysisDuplicate() {
	globalManager.analysesDuplicate.Inc()
}

// RecordAnalysisCompleted increments the completed-analyses counter.
func RecordAnalysisCompleted() {
	globalManager.analysesCompleted.Inc()
}

// RecordAnalysisFailed increments the failed-analyses counter.
func RecordAnalysisFailed() {
	globalManager.analysesFailed.Inc()
}

// Engine metric helpers.

// RecordFitDuration records an MLE fit duration in milliseconds.
func RecordFitDuration(ms float64) {
	globalManager.fitDuration.Observe(ms)
}

// RecordSampleDuration records an MCMC run duration in milliseconds.
func RecordSampleDuration(ms float64) {
	globalManager.sampleDuration.Observe(ms)
}

// RecordConvergenceDuration records a convergence trace duration in milliseconds.
func RecordConvergenceDuration(ms float64) {
	globalManager.convergenceDuration.Observe(ms)
}

// RecordParseDuration records a CSV parse duration in milliseconds.
func RecordParseDuration(ms float64) {
	globalManager.parseDuration.Observe(ms)
}

// RecordFitIterations records the MM iteration count of a fit.
func RecordFitIterations(n int) {
	globalManager.fitIterations.Observe(float64(n))
}

// RecordMatchesPerAnalysis records the match count of a submission.
func RecordMatchesPerAnalysis(n int) {
	globalManager.matchesPerAnalysis.Observe(float64(n))
}

// UpdateAcceptanceRate sets the acceptance rate of the latest MCMC run.
func UpdateAcceptanceRate(rate float64) {
	globalManager.acceptanceRate.Set(rate)
}

// Operational metric helpers.

// UpdateQueueSize sets the current queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the configured worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateAnalysesStored sets the stored-analyses gauge.
func UpdateAnalysesStored(count int) {
	globalManager.analysesStored.Set(float64(count))
}

// Queue metric helpers.

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization gauge (0-1).
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue-error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metric helpers.

// UpdateWorkerActiveCount sets the active worker gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the idle worker gauge.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP metric helpers.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metric helpers.

// RecordErrorByComponent increments the per-component error counter.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments the per-type error counter.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the per-endpoint error counter.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation in milliseconds.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metric helpers.

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the global
// manager, for serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

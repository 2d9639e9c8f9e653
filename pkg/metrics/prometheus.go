// Package metrics provides Prometheus metrics for the candidate ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Evaluation intake
	evaluationsProcessed prometheus.Counter
	evaluationsDuplicate prometheus.Counter
	evaluationsRejected  *prometheus.CounterVec

	// Scoring
	scoringLatency   prometheus.Histogram
	rescoresTotal    prometheus.Counter
	scoringErrors    prometheus.Counter
	rankedCandidates *prometheus.GaugeVec

	// Repository
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	journalWrites           *prometheus.CounterVec

	// Embedding
	embeddingRequests *prometheus.CounterVec
	embeddingLatency  prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "candirank",
		subsystem:        "ranking",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.evaluationsProcessed = m.counter("evaluations_processed_total", "Evaluations applied to rankings")
	m.evaluationsDuplicate = m.counter("evaluations_duplicate_total", "Evaluations dropped as duplicates")
	m.evaluationsRejected = m.counterVec("evaluations_rejected_total", "Evaluations rejected at intake", "reason")

	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Latency of scoring one candidate for one position")
	m.rescoresTotal = m.counter("rescores_total", "Candidate-position pairs rescored")
	m.scoringErrors = m.counter("scoring_errors_total", "Scoring failures")
	m.rankedCandidates = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "ranked_candidates", Help: "Candidates ranked per position",
	}, []string{"position"})

	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Ranking store update latency")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Ranking store query latency")
	m.journalWrites = m.counterVec("journal_writes_total", "Journal writes by record kind and result", "kind", "result")

	m.embeddingRequests = m.counterVec("embedding_requests_total", "Embedding requests by provider and result", "provider", "result")
	m.embeddingLatency = m.histogram("embedding_latency_milliseconds", "Embedding latency")

	m.queueSize = m.gauge("queue_size", "Evaluations waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Evaluations enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Evaluations dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue failures, mostly backpressure")

	m.workerCount = m.gauge("worker_count", "Configured workers")
	m.workerActiveCount = m.gauge("worker_active", "Workers currently processing")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency")
	m.workerErrors = m.counter("worker_errors_total", "Worker processing failures")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Running goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause time")
}

// RecordEvaluationProcessed increments the processed evaluations counter.
func RecordEvaluationProcessed() {
	globalManager.evaluationsProcessed.Inc()
}

// RecordEvaluationDuplicate increments the duplicate evaluations counter.
func RecordEvaluationDuplicate() {
	globalManager.evaluationsDuplicate.Inc()
}

// RecordEvaluationRejected counts an evaluation rejected for reason.
func RecordEvaluationRejected(reason string) {
	globalManager.evaluationsRejected.WithLabelValues(reason).Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordRescore counts one rescored candidate-position pair.
func RecordRescore() {
	globalManager.rescoresTotal.Inc()
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// UpdateRankedCandidates sets the number of ranked candidates for a position.
func UpdateRankedCandidates(positionID string, count int) {
	globalManager.rankedCandidates.WithLabelValues(positionID).Set(float64(count))
}

// RecordRepositoryUpdateLatency records ranking update latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records ranking query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordJournalWrite counts a journal write of kind with result "ok" or "error".
func RecordJournalWrite(kind, result string) {
	globalManager.journalWrites.WithLabelValues(kind, result).Inc()
}

// RecordEmbedding counts an embedding request and records its latency.
func RecordEmbedding(provider, result string, latencyMs float64) {
	globalManager.embeddingRequests.WithLabelValues(provider, result).Inc()
	globalManager.embeddingLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

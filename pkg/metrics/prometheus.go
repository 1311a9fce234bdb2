// Package metrics provides Prometheus metrics for the gigmatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are millisecond buckets shared by the latency histograms.
var latencyBuckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // immutable defaults

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching pipeline
	matchRuns          *prometheus.CounterVec
	matchRunLatency    *prometheus.HistogramVec
	candidatesScored   prometheus.Counter
	candidatesFiltered *prometheus.CounterVec
	resultsPersisted   prometheus.Counter
	compositeScores    prometheus.Histogram
	lockWaitLatency    prometheus.Histogram

	// Semantic similarity
	similarityCalls     *prometheus.CounterVec
	embeddingCacheHits  prometheus.Counter
	embeddingCacheMiss  prometheus.Counter
	breakerState        *prometheus.GaugeVec
	breakerTransitions  *prometheus.CounterVec
	similarityDegraded  prometheus.Gauge
	embeddingLatency    prometheus.Histogram

	// Rematch queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueues           prometheus.Counter
	queueDequeues           prometheus.Counter
	queueEnqueueErrors      *prometheus.CounterVec
	rematchDuplicates       prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            *prometheus.CounterVec

	// Store
	totalTalents prometheus.Gauge
	totalGigs    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gigmatch",
		subsystem:        "matching",
		histogramBuckets: latencyBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.matchRuns = m.counterVec("runs_total", "Ranking runs by algorithm and outcome", "algorithm", "outcome")
	m.matchRunLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_latency_milliseconds",
		Help:      "End-to-end ranking run latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"algorithm"})
	m.candidatesScored = m.counter("candidates_scored_total", "Candidates scored across all runs")
	m.candidatesFiltered = m.counterVec("candidates_filtered_total", "Candidates dropped before ranking", "reason")
	m.resultsPersisted = m.counter("results_persisted_total", "Match results written by replace-all persistence")
	m.compositeScores = m.histogram("composite_score", "Distribution of composite scores", prometheus.LinearBuckets(0, 1, 11))
	m.lockWaitLatency = m.histogram("lock_wait_milliseconds", "Time spent waiting for the per-gig lease", m.histogramBuckets)

	m.similarityCalls = m.counterVec("similarity_calls_total", "Semantic similarity computations by result", "result")
	m.embeddingCacheHits = m.counter("embedding_cache_hits_total", "Embedding cache hits")
	m.embeddingCacheMiss = m.counter("embedding_cache_misses_total", "Embedding cache misses")
	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
	m.breakerTransitions = m.counterVec("circuit_breaker_transitions_total", "Circuit breaker state transitions", "name", "from", "to")
	m.similarityDegraded = m.gauge("similarity_degraded", "1 when the semantic similarity capability is unavailable")
	m.embeddingLatency = m.histogram("embedding_latency_milliseconds", "Remote embedding call latency in milliseconds", m.histogramBuckets)

	m.queueSize = m.gauge("rematch_queue_size", "Current number of queued rematch jobs")
	m.queueCapacity = m.gauge("rematch_queue_capacity", "Maximum rematch queue capacity")
	m.queueEnqueues = m.counter("rematch_enqueued_total", "Rematch jobs enqueued")
	m.queueDequeues = m.counter("rematch_dequeued_total", "Rematch jobs dequeued")
	m.queueEnqueueErrors = m.counterVec("rematch_enqueue_errors_total", "Rematch jobs rejected by the queue", "reason")
	m.rematchDuplicates = m.counter("rematch_duplicates_total", "Rematch requests coalesced with a pending job")
	m.workerCount = m.gauge("rematch_workers", "Number of rematch workers")
	m.workerProcessingLatency = m.histogram("rematch_processing_milliseconds", "Rematch job processing latency", m.histogramBuckets)
	m.workerErrors = m.counterVec("rematch_errors_total", "Rematch job failures by kind", "kind")

	m.totalTalents = m.gauge("talents_total", "Talents visible to the matcher")
	m.totalGigs = m.gauge("gigs_total", "Gigs visible to the matcher")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("http_errors_total", "HTTP errors by endpoint and type", "endpoint", "method", "error_type")
}

// Matching pipeline.

// RecordMatchRun counts a finished ranking run.
func RecordMatchRun(algorithm, outcome string) {
	globalManager.matchRuns.WithLabelValues(algorithm, outcome).Inc()
}

// RecordMatchRunLatency observes the run latency in milliseconds.
func RecordMatchRunLatency(algorithm string, latencyMs float64) {
	globalManager.matchRunLatency.WithLabelValues(algorithm).Observe(latencyMs)
}

// RecordCandidatesScored adds n scored candidates.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Add(float64(n))
}

// RecordCandidatesFiltered adds n candidates dropped for reason.
func RecordCandidatesFiltered(reason string, n int) {
	globalManager.candidatesFiltered.WithLabelValues(reason).Add(float64(n))
}

// RecordResultsPersisted adds n persisted results.
func RecordResultsPersisted(n int) {
	globalManager.resultsPersisted.Add(float64(n))
}

// ObserveCompositeScore records one composite score.
func ObserveCompositeScore(score float64) {
	globalManager.compositeScores.Observe(score)
}

// RecordLockWait observes time spent acquiring the per-gig lease.
func RecordLockWait(latencyMs float64) {
	globalManager.lockWaitLatency.Observe(latencyMs)
}

// Semantic similarity.

// RecordSimilarityCall counts a similarity computation ("ok", "error", "empty").
func RecordSimilarityCall(result string) {
	globalManager.similarityCalls.WithLabelValues(result).Inc()
}

// RecordEmbeddingCache counts a cache lookup.
func RecordEmbeddingCache(hit bool) {
	if hit {
		globalManager.embeddingCacheHits.Inc()
		return
	}
	globalManager.embeddingCacheMiss.Inc()
}

// RecordEmbeddingLatency observes a remote embedding call.
func RecordEmbeddingLatency(latencyMs float64) {
	globalManager.embeddingLatency.Observe(latencyMs)
}

// UpdateBreakerState sets the breaker gauge for name.
func UpdateBreakerState(name string, state float64) {
	globalManager.breakerState.WithLabelValues(name).Set(state)
}

// RecordBreakerTransition counts a breaker state change.
func RecordBreakerTransition(name, from, to string) {
	globalManager.breakerTransitions.WithLabelValues(name, from, to).Inc()
}

// SetSimilarityDegraded flags whether the similarity capability is degraded.
func SetSimilarityDegraded(degraded bool) {
	if degraded {
		globalManager.similarityDegraded.Set(1)
		return
	}
	globalManager.similarityDegraded.Set(0)
}

// Rematch queue and workers.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue counts a delivered job.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordRematchDuplicate counts a request coalesced with a pending job.
func RecordRematchDuplicate() {
	globalManager.rematchDuplicates.Inc()
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes job processing time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError(kind string) {
	globalManager.workerErrors.WithLabelValues(kind).Inc()
}

// Store.

// UpdateTotalTalents sets the talent gauge.
func UpdateTotalTalents(count int) {
	globalManager.totalTalents.Set(float64(count))
}

// UpdateTotalGigs sets the gig gauge.
func UpdateTotalGigs(count int) {
	globalManager.totalGigs.Set(float64(count))
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

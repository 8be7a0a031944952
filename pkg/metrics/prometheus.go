// Package metrics provides Prometheus metrics for the matchday service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Match metrics
	matchesSimulated   *prometheus.CounterVec
	goalsScored        *prometheus.CounterVec
	cardsShown         prometheus.Counter
	simulationErrors   *prometheus.CounterVec
	simulationLatency  prometheus.Histogram
	clubStrength       prometheus.Histogram
	standingsFolds     prometheus.Counter
	requestsDuplicate  prometheus.Counter
	clubsTotal         prometheus.Gauge
	competitionsTotal  prometheus.Gauge
	seasonsScheduled   prometheus.Counter
	lineupRejections   prometheus.Counter
	resultsPersisted   prometheus.Counter
	resultsDuplicate   prometheus.Counter
	standingsQueryRows prometheus.Histogram

	// Snapshot metrics
	snapshotRebuildDuration prometheus.Histogram
	snapshotLastUnix        prometheus.Gauge
	snapshotCount           prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository metrics
	repositoryUpdateLatency *prometheus.HistogramVec
	repositoryQueryLatency  *prometheus.HistogramVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     *prometheus.CounterVec
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var (
	globalMu      sync.RWMutex
	globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager
	// Custom registry to avoid default Go metrics.
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init replaces the process-wide manager with one built from opts on a fresh
// registry. Components capture Default() when they are constructed, so call
// Init before building them.
func Init(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(registry))...)

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = m
	customRegistry = registry
	return m
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchday",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often gauges fed by background loops are updated.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.matchesSimulated = auto.NewCounterVec(m.counterOpts("matches_simulated_total",
		"Total number of matches simulated"), []string{"kind"})
	m.goalsScored = auto.NewCounterVec(m.counterOpts("goals_total",
		"Total number of goals scored by side"), []string{"side"})
	m.cardsShown = auto.NewCounter(m.counterOpts("cards_total",
		"Total number of cards shown"))
	m.simulationErrors = auto.NewCounterVec(m.counterOpts("simulation_errors_total",
		"Total number of matches that could not be simulated"), []string{"reason"})
	m.simulationLatency = auto.NewHistogram(m.histogramOpts("simulation_latency_milliseconds",
		"End-to-end latency of playing one match", nil))
	m.clubStrength = auto.NewHistogram(m.histogramOpts("club_strength",
		"Distribution of evaluated club strengths",
		[]float64{20, 40, 60, 80, 100, 120, 140, 160}))
	m.standingsFolds = auto.NewCounter(m.counterOpts("standings_folds_total",
		"Total number of results folded into standings"))
	m.requestsDuplicate = auto.NewCounter(m.counterOpts("requests_duplicate_total",
		"Total number of duplicate match requests rejected at submission"))
	m.clubsTotal = auto.NewGauge(m.gaugeOpts("clubs_total",
		"Number of clubs known to the store"))
	m.competitionsTotal = auto.NewGauge(m.gaugeOpts("competitions_total",
		"Number of competitions with standings"))
	m.seasonsScheduled = auto.NewCounter(m.counterOpts("seasons_scheduled_total",
		"Total number of seasons scheduled"))
	m.lineupRejections = auto.NewCounter(m.counterOpts("lineup_rejections_total",
		"Total number of lineups rejected by validation"))
	m.resultsPersisted = auto.NewCounter(m.counterOpts("results_persisted_total",
		"Total number of match results persisted"))
	m.resultsDuplicate = auto.NewCounter(m.counterOpts("results_duplicate_total",
		"Total number of results rejected because the match id was already recorded"))
	m.standingsQueryRows = auto.NewHistogram(m.histogramOpts("standings_query_rows",
		"Number of rows returned per standings query",
		[]float64{1, 5, 10, 20, 50, 100}))

	m.snapshotRebuildDuration = auto.NewHistogram(m.histogramOpts("snapshot_rebuild_duration_milliseconds",
		"Standings snapshot rebuild duration in milliseconds", nil))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts("snapshot_last_unix",
		"Unix timestamp of the last standings snapshot publish"))
	m.snapshotCount = auto.NewCounter(m.counterOpts("snapshot_count_total",
		"Total number of standings snapshots published"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"})

	m.repositoryUpdateLatency = auto.NewHistogramVec(m.histogramOpts("repository_update_latency_milliseconds",
		"Repository write latency in milliseconds", nil), []string{"store"})
	m.repositoryQueryLatency = auto.NewHistogramVec(m.histogramOpts("repository_query_latency_milliseconds",
		"Repository read latency in milliseconds", nil), []string{"store"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Current number of match requests waiting"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Queue utilization ratio (current size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total",
		"Total number of match requests enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total",
		"Total number of match requests dequeued"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total",
		"Total number of rejected enqueues by reason"), []string{"reason"})
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds",
		"Enqueue latency in milliseconds", nil))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count",
		"Number of running workers"))
	m.workerMessagesPerSecond = auto.NewGauge(m.gaugeOpts("worker_messages_per_second",
		"Average match requests processed per second"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Worker processing latency in milliseconds", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Total number of failed match requests"))

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Total number of errors by component"), []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Match metrics.

// RecordMatchSimulated counts a played match with its score and card count.
func (m *Manager) RecordMatchSimulated(friendly bool, homeGoals, awayGoals, cards int) {
	if !m.enabled {
		return
	}
	kind := "league"
	if friendly {
		kind = "friendly"
	}
	m.matchesSimulated.WithLabelValues(kind).Inc()
	m.goalsScored.WithLabelValues("home").Add(float64(homeGoals))
	m.goalsScored.WithLabelValues("away").Add(float64(awayGoals))
	m.cardsShown.Add(float64(cards))
}

// RecordSimulationError counts a match that failed before a result existed.
func (m *Manager) RecordSimulationError(reason string) {
	if m.enabled {
		m.simulationErrors.WithLabelValues(reason).Inc()
	}
}

// RecordSimulationLatency records how long one match took to play.
func (m *Manager) RecordSimulationLatency(latencyMs float64) {
	if m.enabled {
		m.simulationLatency.Observe(latencyMs)
	}
}

// ObserveStrength records an evaluated club strength.
func (m *Manager) ObserveStrength(strength float64) {
	if m.enabled {
		m.clubStrength.Observe(strength)
	}
}

// RecordStandingsFold counts a result folded into standings.
func (m *Manager) RecordStandingsFold() {
	if m.enabled {
		m.standingsFolds.Inc()
	}
}

// RecordRequestDuplicate counts a request rejected by the deduper.
func (m *Manager) RecordRequestDuplicate() {
	if m.enabled {
		m.requestsDuplicate.Inc()
	}
}

// UpdateClubsTotal sets the club gauge.
func (m *Manager) UpdateClubsTotal(n int) {
	if m.enabled {
		m.clubsTotal.Set(float64(n))
	}
}

// UpdateCompetitionsTotal sets the competition gauge.
func (m *Manager) UpdateCompetitionsTotal(n int) {
	if m.enabled {
		m.competitionsTotal.Set(float64(n))
	}
}

// RecordSeasonScheduled counts a scheduled season.
func (m *Manager) RecordSeasonScheduled() {
	if m.enabled {
		m.seasonsScheduled.Inc()
	}
}

// RecordLineupRejected counts a lineup that failed validation.
func (m *Manager) RecordLineupRejected() {
	if m.enabled {
		m.lineupRejections.Inc()
	}
}

// RecordResultPersisted counts a stored result.
func (m *Manager) RecordResultPersisted() {
	if m.enabled {
		m.resultsPersisted.Inc()
	}
}

// RecordResultDuplicate counts a result rejected by the store.
func (m *Manager) RecordResultDuplicate() {
	if m.enabled {
		m.resultsDuplicate.Inc()
	}
}

// ObserveStandingsRows records the size of a standings response.
func (m *Manager) ObserveStandingsRows(n int) {
	if m.enabled {
		m.standingsQueryRows.Observe(float64(n))
	}
}

// Snapshot metrics.

// RecordSnapshot records a published standings snapshot.
func (m *Manager) RecordSnapshot(duration time.Duration) {
	if !m.enabled {
		return
	}
	m.snapshotRebuildDuration.Observe(float64(duration.Microseconds()) / 1000)
	m.snapshotLastUnix.Set(float64(time.Now().Unix()))
	m.snapshotCount.Inc()
}

// HTTP metrics.

// RecordHTTPRequest records one served request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Repository metrics.

// RecordRepositoryUpdateLatency records a write against the named store.
func (m *Manager) RecordRepositoryUpdateLatency(store string, latencyMs float64) {
	if m.enabled {
		m.repositoryUpdateLatency.WithLabelValues(store).Observe(latencyMs)
	}
}

// RecordRepositoryQueryLatency records a read against the named store.
func (m *Manager) RecordRepositoryQueryLatency(store string, latencyMs float64) {
	if m.enabled {
		m.repositoryQueryLatency.WithLabelValues(store).Observe(latencyMs)
	}
}

// Queue metrics.

// UpdateQueueCapacity sets the capacity gauge.
func (m *Manager) UpdateQueueCapacity(capacity int) {
	if m.enabled {
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueDepth sets the size and utilization gauges.
func (m *Manager) UpdateQueueDepth(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted request.
func (m *Manager) RecordQueueEnqueue(latencyMs float64) {
	if !m.enabled {
		return
	}
	m.queueEnqueued.Inc()
	m.queueProcessingLatency.Observe(latencyMs)
}

// RecordQueueDequeue counts a request handed to a worker.
func (m *Manager) RecordQueueDequeue() {
	if m.enabled {
		m.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func (m *Manager) RecordQueueEnqueueError(reason string) {
	if !m.enabled {
		return
	}
	m.queueEnqueueErrors.WithLabelValues(reason).Inc()
	m.errorRateByComponent.WithLabelValues("queue", reason).Inc()
}

// Worker metrics.

// UpdateWorkerActiveCount sets the running worker gauge.
func (m *Manager) UpdateWorkerActiveCount(count int) {
	if m.enabled {
		m.workerActiveCount.Set(float64(count))
	}
}

// UpdateWorkerMessagesPerSecond sets the throughput gauge.
func (m *Manager) UpdateWorkerMessagesPerSecond(rate float64) {
	if m.enabled {
		m.workerMessagesPerSecond.Set(rate)
	}
}

// RecordWorkerProcessingLatency records how long a worker spent on one request.
func (m *Manager) RecordWorkerProcessingLatency(latencyMs float64) {
	if m.enabled {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a failed request.
func (m *Manager) RecordWorkerError(errorType string) {
	if !m.enabled {
		return
	}
	m.workerErrors.Inc()
	m.errorRateByComponent.WithLabelValues("worker", errorType).Inc()
}

// Error metrics.

// RecordErrorByComponent counts an error raised by a component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint counts an error returned by an HTTP endpoint.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System metrics.

// UpdateSystem sets memory and goroutine gauges and records the last GC pause.
func (m *Manager) UpdateSystem(heapBytes uint64, goroutines int, lastPauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(heapBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if lastPauseMs > 0 {
		m.systemGCPauseTime.Observe(lastPauseMs)
	}
}

// Default returns the process-wide manager.
func Default() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// GetRegistry returns the registry backing the process-wide manager.
func GetRegistry() *prometheus.Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return customRegistry
}

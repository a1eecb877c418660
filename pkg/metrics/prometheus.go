// Package metrics provides Prometheus metrics for the careerpulse engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scoreBuckets   = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // shared bucket layout
	latencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250}  //nolint:gochecknoglobals // shared bucket layout
)

// Manager owns all Prometheus collectors of the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Scoring
	scoresCombined    *prometheus.CounterVec
	scoreFailures     *prometheus.CounterVec
	scoreOverall      prometheus.Histogram
	duplicateAnalyses prometheus.Counter
	peerIndexSize     *prometheus.GaugeVec

	// Benchmarks
	benchmarkResolutions  *prometheus.CounterVec
	benchmarkSourceErrors prometheus.Counter

	// Predictions
	predictionsCreated  *prometheus.CounterVec
	predictionsOverdue  prometheus.Counter
	predictionsResolved prometheus.Counter
	predictionAccuracy  prometheus.Histogram

	// Engagement
	engagementScores prometheus.Histogram

	// Storage
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "careerpulse",
		subsystem:        "engine",
		histogramBuckets: latencyBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scoresCombined = auto.NewCounterVec(
		m.counterOpts("scores_combined_total", "Composite scores produced, by score kind"),
		[]string{"kind"},
	)
	m.scoreFailures = auto.NewCounterVec(
		m.counterOpts("score_failures_total", "Combine calls rejected, by error kind"),
		[]string{"error_kind"},
	)
	m.scoreOverall = auto.NewHistogram(
		m.histogramOpts("score_overall", "Distribution of composite overall scores", scoreBuckets),
	)
	m.duplicateAnalyses = auto.NewCounter(
		m.counterOpts("duplicate_analyses_total", "Analyses submitted again after being scored"),
	)
	m.peerIndexSize = auto.NewGaugeVec(
		m.gaugeOpts("peer_index_size", "Scores held in the peer index, by score kind"),
		[]string{"kind"},
	)

	m.benchmarkResolutions = auto.NewCounterVec(
		m.counterOpts("benchmark_resolutions_total", "Benchmark resolutions, by match level"),
		[]string{"match"},
	)
	m.benchmarkSourceErrors = auto.NewCounter(
		m.counterOpts("benchmark_source_errors_total", "Benchmark source lookups that failed"),
	)

	m.predictionsCreated = auto.NewCounterVec(
		m.counterOpts("predictions_created_total", "Predictions created or regenerated, by benchmark match level"),
		[]string{"match"},
	)
	m.predictionsOverdue = auto.NewCounter(
		m.counterOpts("predictions_overdue_total", "Predictions flagged overdue"),
	)
	m.predictionsResolved = auto.NewCounter(
		m.counterOpts("predictions_resolved_total", "Predictions resolved with an observed outcome"),
	)
	m.predictionAccuracy = auto.NewHistogram(
		m.histogramOpts("prediction_accuracy", "Accuracy of resolved predictions", scoreBuckets),
	)

	m.engagementScores = auto.NewHistogram(
		m.histogramOpts("engagement_score", "Distribution of subject engagement scores", scoreBuckets),
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds", m.histogramBuckets),
		[]string{"driver", "op"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Store operations that failed"),
		[]string{"driver", "op"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
}

// RecordScoreCombined counts a composite score and observes its value.
func RecordScoreCombined(kind string, overall int) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoresCombined.WithLabelValues(kind).Inc()
	globalManager.scoreOverall.Observe(float64(overall))
}

// RecordScoreFailure counts a rejected combine call.
func RecordScoreFailure(errorKind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoreFailures.WithLabelValues(errorKind).Inc()
}

// RecordDuplicateAnalysis counts an analysis retried after scoring.
func RecordDuplicateAnalysis() {
	if !globalManager.enabled {
		return
	}
	globalManager.duplicateAnalyses.Inc()
}

// UpdatePeerIndexSize sets the number of indexed scores for kind.
func UpdatePeerIndexSize(kind string, size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.peerIndexSize.WithLabelValues(kind).Set(float64(size))
}

// RecordBenchmarkResolution counts a resolution at the given match level.
func RecordBenchmarkResolution(match string) {
	if !globalManager.enabled {
		return
	}
	globalManager.benchmarkResolutions.WithLabelValues(match).Inc()
}

// RecordBenchmarkSourceError counts a failed source lookup.
func RecordBenchmarkSourceError() {
	if !globalManager.enabled {
		return
	}
	globalManager.benchmarkSourceErrors.Inc()
}

// RecordPredictionCreated counts a created or regenerated prediction.
func RecordPredictionCreated(match string) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictionsCreated.WithLabelValues(match).Inc()
}

// RecordPredictionOverdue counts an overdue flag being set.
func RecordPredictionOverdue() {
	if !globalManager.enabled {
		return
	}
	globalManager.predictionsOverdue.Inc()
}

// RecordPredictionResolved counts a resolution and observes its accuracy.
func RecordPredictionResolved(accuracy float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictionsResolved.Inc()
	globalManager.predictionAccuracy.Observe(accuracy)
}

// RecordEngagementScore observes a subject engagement score.
func RecordEngagementScore(engagement int) {
	if !globalManager.enabled {
		return
	}
	globalManager.engagementScores.Observe(float64(engagement))
}

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(driver, op string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeLatency.WithLabelValues(driver, op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(driver, op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeErrors.WithLabelValues(driver, op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the savant batch jobs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row kinds used as the "kind" label of rows_written_total.
const (
	KindPeriod   = "period"
	KindCombined = "combined"
)

// Upstream fetches take seconds to minutes; buckets are in milliseconds.
var defaultFetchBuckets = []float64{250, 500, 1000, 2500, 5000, 10_000, 30_000, 60_000, 120_000, 300_000}

// Manager owns the Prometheus metrics of one process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Upstream fetches
	periodsFetched prometheus.Counter
	fetchLatency   prometheus.Histogram
	fetchErrors    prometheus.Counter
	fetchRetries   prometheus.Counter

	// Files
	rowsWritten       *prometheus.CounterVec
	duplicatesDropped prometheus.Counter
	invalidFiles      prometheus.Counter
	missingPeriods    prometheus.Gauge

	// Runs
	lastSuccessUnix   prometheus.Gauge
	lastRunDurationMs prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics in the exported textfile.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "savant",
		subsystem:        "statcast",
		histogramBuckets: defaultFetchBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.periodsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "periods_fetched_total",
		Help:      "Total number of periods fetched from the upstream service",
	})

	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_latency_milliseconds",
		Help:      "Histogram of upstream fetch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.fetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_errors_total",
		Help:      "Total number of failed upstream fetch attempts",
	})

	m.fetchRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_retries_total",
		Help:      "Total number of retried upstream fetch attempts",
	})

	m.rowsWritten = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_written_total",
			Help:      "Total number of rows written, by file kind",
		},
		[]string{"kind"},
	)

	m.duplicatesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicates_dropped_total",
		Help:      "Total number of exact-duplicate rows removed during merges",
	})

	m.invalidFiles = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "invalid_files_total",
		Help:      "Total number of period files that failed validation",
	})

	m.missingPeriods = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "missing_periods",
		Help:      "Number of period files absent at the last merge",
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_unix",
		Help:      "Unix timestamp of the last successful run",
	})

	m.lastRunDurationMs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_duration_milliseconds",
		Help:      "Duration of the last run in milliseconds",
	})
}

// RecordPeriodFetched counts one fetched period and its latency.
func RecordPeriodFetched(latency time.Duration) {
	globalManager.periodsFetched.Inc()
	globalManager.fetchLatency.Observe(float64(latency) / float64(time.Millisecond))
}

// RecordFetchError increments the fetch error counter.
func RecordFetchError() {
	globalManager.fetchErrors.Inc()
}

// RecordFetchRetry increments the fetch retry counter.
func RecordFetchRetry() {
	globalManager.fetchRetries.Inc()
}

// RecordRowsWritten adds n rows written to a file of the given kind.
func RecordRowsWritten(kind string, n int) {
	globalManager.rowsWritten.WithLabelValues(kind).Add(float64(n))
}

// RecordDuplicatesDropped adds n removed duplicate rows.
func RecordDuplicatesDropped(n int) {
	globalManager.duplicatesDropped.Add(float64(n))
}

// RecordInvalidFile increments the invalid file counter.
func RecordInvalidFile() {
	globalManager.invalidFiles.Inc()
}

// UpdateMissingPeriods sets the number of absent period files.
func UpdateMissingPeriods(n int) {
	globalManager.missingPeriods.Set(float64(n))
}

// RecordRunSuccess stamps the completion time and duration of a successful run.
func RecordRunSuccess(finished time.Time, took time.Duration) {
	globalManager.lastSuccessUnix.Set(float64(finished.Unix()))
	globalManager.lastRunDurationMs.Set(float64(took) / float64(time.Millisecond))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current metrics in text exposition format to
// path, for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

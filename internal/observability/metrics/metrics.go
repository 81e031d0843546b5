package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "scenario_"

	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"
)

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultSkipped = resultSkipped

	ToolGenerate = "scenariogen"
	ToolCombine  = "resultmerge"
)

// Metrics bundles the counters of one batch run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	rowsTotal      *prometheus.CounterVec
	documentsTotal *prometheus.CounterVec
	columns        prometheus.Gauge
	runDuration    *prometheus.HistogramVec
	lastRun        *prometheus.GaugeVec
}

// New constructs and registers run metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_total",
				Help: "Scenario table rows mapped to documents by result",
			},
			[]string{"result"},
		),
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "result_documents_total",
				Help: "Result documents flattened by result",
			},
			[]string{"result"},
		),
		columns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "combined_columns",
			Help: "Columns in the last combined table",
		}),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_duration_seconds",
				Help:    "Batch run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool", "result"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
			[]string{"tool"},
		),
	}
	m.registry.MustRegister(
		m.rowsTotal,
		m.documentsTotal,
		m.columns,
		m.runDuration,
		m.lastRun,
	)
	return m
}

// ObserveRow counts one mapped row.
func (m *Metrics) ObserveRow(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = resultSuccess
	}
	m.rowsTotal.WithLabelValues(result).Inc()
}

// ObserveDocument counts one flattened result document.
func (m *Metrics) ObserveDocument(result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = resultSuccess
	}
	m.documentsTotal.WithLabelValues(result).Inc()
}

// SetColumns records the width of the combined table.
func (m *Metrics) SetColumns(count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.columns.Set(float64(count))
}

// ObserveRun records run duration and completion time.
func (m *Metrics) ObserveRun(tool, result string, duration time.Duration) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	m.runDuration.WithLabelValues(tool, result).Observe(duration.Seconds())
	m.lastRun.WithLabelValues(tool).SetToCurrentTime()
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteTextfile writes the registry in text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

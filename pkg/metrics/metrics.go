package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of one suppcheck run. Each instance
// owns its registry so runs and tests do not share state.
type Metrics struct {
	registry *prometheus.Registry

	LogsRead           prometheus.Counter
	ReportsObserved    prometheus.Counter
	ReportsDistinct    prometheus.Counter
	ReportsSuppressed  *prometheus.CounterVec
	ReportsUnmatched   *prometheus.CounterVec
	SuppressionsLoaded *prometheus.GaugeVec
	SuppressionHits    *prometheus.CounterVec
	SuppressionsUnused prometheus.Gauge
	CheckDuration      prometheus.Histogram
}

// New creates a Metrics instance with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		LogsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "suppcheck_logs_read_total",
			Help: "Total number of report logs read",
		}),
		ReportsObserved: factory.NewCounter(prometheus.CounterOpts{
			Name: "suppcheck_reports_observed_total",
			Help: "Total number of report blocks found in logs, before deduplication",
		}),
		ReportsDistinct: factory.NewCounter(prometheus.CounterOpts{
			Name: "suppcheck_reports_distinct_total",
			Help: "Total number of distinct report texts checked",
		}),
		ReportsSuppressed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suppcheck_reports_suppressed_total",
				Help: "Distinct reports covered by a suppression, by candidate route",
			},
			[]string{"route"},
		),
		ReportsUnmatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suppcheck_reports_unmatched_total",
				Help: "Distinct reports no suppression covered, by candidate route",
			},
			[]string{"route"},
		),
		SuppressionsLoaded: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "suppcheck_suppressions_loaded",
				Help: "Number of suppressions loaded per set",
			},
			[]string{"set"},
		),
		SuppressionHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suppcheck_suppression_hits_total",
				Help: "Distinct reports matched, by suppression",
			},
			[]string{"suppression", "name"},
		),
		SuppressionsUnused: factory.NewGauge(prometheus.GaugeOpts{
			Name: "suppcheck_suppressions_unused",
			Help: "Number of suppressions that matched no report",
		}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "suppcheck_check_duration_seconds",
			Help:    "Duration of matching all reports in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}),
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCheck records how long a check took.
func (m *Metrics) ObserveCheck(d time.Duration) {
	m.CheckDuration.Observe(d.Seconds())
}

// WriteToTextfile writes every metric in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report pipeline.
type Metrics struct {
	SamplesConsumed prometheus.Counter
	ReportsProduced *prometheus.CounterVec // labels: kind={morning,evening,dynamic}
	ReportErrors    prometheus.Counter
	SchedulerActive prometheus.Gauge

	// Run metrics.
	RunDuration  prometheus.Histogram
	ReportLength prometheus.Histogram

	// Dynamic-report gatekeeping.
	DynamicChecks     *prometheus.CounterVec // labels: outcome={sent,unchanged,suppressed}
	DynamicSuppressed *prometheus.CounterVec // labels: reason={interval,daily_cap}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SamplesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autobot",
			Name:      "samples_consumed_total",
			Help:      "Total forecast samples read from the samples topic.",
		}),
		ReportsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autobot",
			Name:      "reports_produced_total",
			Help:      "Reports published to the reports topic, by kind.",
		}, []string{"kind"}),
		ReportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autobot",
			Name:      "report_errors_total",
			Help:      "Total failed report runs.",
		}),
		SchedulerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "autobot",
			Name:      "scheduler_active",
			Help:      "1 when the scheduler loop is running, 0 when shut down.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autobot",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete merge-analyze-encode report run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ReportLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autobot",
			Name:      "report_length_chars",
			Help:      "Length of published report texts in characters.",
			Buckets:   []float64{40, 60, 80, 100, 120, 140, 150, 160},
		}),
		DynamicChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autobot",
			Name:      "dynamic_checks_total",
			Help:      "Dynamic change checks by outcome.",
		}, []string{"outcome"}),
		DynamicSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autobot",
			Name:      "dynamic_suppressed_total",
			Help:      "Significant changes withheld by a rate limit, by reason.",
		}, []string{"reason"}),
	}

	prometheus.MustRegister(
		m.SamplesConsumed,
		m.ReportsProduced,
		m.ReportErrors,
		m.SchedulerActive,
		m.RunDuration,
		m.ReportLength,
		m.DynamicChecks,
		m.DynamicSuppressed,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SamplesConsumed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "autobot", Name: "samples_consumed_total"}),
		ReportsProduced:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "autobot", Name: "reports_produced_total"}, []string{"kind"}),
		ReportErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "autobot", Name: "report_errors_total"}),
		SchedulerActive:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "autobot", Name: "scheduler_active"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "autobot", Name: "run_duration_seconds"}),
		ReportLength:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "autobot", Name: "report_length_chars"}),
		DynamicChecks:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "autobot", Name: "dynamic_checks_total"}, []string{"outcome"}),
		DynamicSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "autobot", Name: "dynamic_suppressed_total"}, []string{"reason"}),
	}
}

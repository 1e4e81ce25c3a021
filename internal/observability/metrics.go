package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the assessment engine.
type Metrics struct {
	AssessmentsTotal   prometheus.Counter
	AssessmentDuration prometheus.Histogram

	CacheLookups    *prometheus.CounterVec // labels: domain, result={hit,miss}
	ProviderQueries *prometheus.CounterVec // labels: provider, outcome={success,error,empty}
	Fallbacks       *prometheus.CounterVec // labels: domain
	PrimaryUp       prometheus.Gauge
}

// NewMetrics creates and registers the engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AssessmentsTotal,
		m.AssessmentDuration,
		m.CacheLookups,
		m.ProviderQueries,
		m.Fallbacks,
		m.PrimaryUp,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build multiple instances without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AssessmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "site_assessment",
			Name:      "assessments_total",
			Help:      "Total composite site assessments served.",
		}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "site_assessment",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a full three-domain assessment.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site_assessment",
			Name:      "cache_lookups_total",
			Help:      "Coordinate cache lookups by domain and result.",
		}, []string{"domain", "result"}),
		ProviderQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site_assessment",
			Name:      "provider_queries_total",
			Help:      "Upstream geodata queries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site_assessment",
			Name:      "fallback_activations_total",
			Help:      "Analyses answered by the fallback pipeline, by domain.",
		}, []string{"domain"}),
		PrimaryUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "site_assessment",
			Name:      "primary_provider_up",
			Help:      "1 when the satellite-atlas client is initialized, 0 otherwise.",
		}),
	}
}

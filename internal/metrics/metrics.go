// Package metrics holds the Prometheus collectors shared by the analysis pipeline.
// A nil *Metrics is valid and records nothing, so components can run without one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "case_analyzer"

type Metrics struct {
	cacheLookups  *prometheus.CounterVec
	cachePuts     *prometheus.CounterVec
	extractions   *prometheus.CounterVec
	modelCalls    *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	analyses      *prometheus.CounterVec
	queueDepth    prometheus.Gauge
}

// New builds the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in binaries and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Extraction cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		cachePuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_puts_total",
			Help:      "Extraction cache writes by outcome.",
		}, []string{"outcome"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_attempts_total",
			Help:      "Extraction strategy attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Model invocations by provider and outcome.",
		}, []string{"provider", "outcome"}),
		modelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Model invocation latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"provider"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Case analyses by outcome and recommendation.",
		}, []string{"outcome", "recommendation"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting in the analysis queue.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.cacheLookups, m.cachePuts, m.extractions, m.modelCalls, m.modelDuration, m.analyses, m.queueDepth)
	}
	return m
}

func (m *Metrics) CacheLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) CachePut(outcome string) {
	if m == nil {
		return
	}
	m.cachePuts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ExtractionAttempt(strategy, outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) ModelCall(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(provider, outcome).Inc()
	m.modelDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) Analysis(outcome, recommendation string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome, recommendation).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

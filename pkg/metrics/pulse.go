package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PulseMetrics covers the analytics path: source reads, rejected rows, narrative calls.
type PulseMetrics struct {
	sourceDuration *prometheus.HistogramVec
	sourceErrors   *prometheus.CounterVec
	excludedRows   prometheus.Counter
	narrative      *prometheus.CounterVec
	momentum       *prometheus.GaugeVec
}

func NewPulseMetrics(reg prometheus.Registerer) *PulseMetrics {
	if reg == nil {
		return &PulseMetrics{}
	}
	m := &PulseMetrics{
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_query_duration_seconds",
			Help:      "Latency of data source reads by operation and mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "mode"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Data source reads that returned an error.",
		}, []string{"operation", "mode"}),
		excludedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "excluded_rows_total",
			Help:      "Population rows rejected as invalid aggregates.",
		}),
		narrative: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_requests_total",
			Help:      "Narrative generation attempts by outcome.",
		}, []string{"outcome"}),
		momentum: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "momentum_sales",
			Help:      "Latest live snapshot totals by side (growers, decliners, net).",
		}, []string{"side"}),
	}
	reg.MustRegister(m.sourceDuration, m.sourceErrors, m.excludedRows, m.narrative, m.momentum)
	return m
}

// ObserveSource records one source read.
func (m *PulseMetrics) ObserveSource(operation, mode string, duration time.Duration, err error) {
	if m == nil || m.sourceDuration == nil {
		return
	}
	m.sourceDuration.WithLabelValues(normalizeLabel(operation), normalizeLabel(mode)).Observe(duration.Seconds())
	if err != nil {
		m.sourceErrors.WithLabelValues(normalizeLabel(operation), normalizeLabel(mode)).Inc()
	}
}

func (m *PulseMetrics) AddExcluded(n int) {
	if m == nil || m.excludedRows == nil || n <= 0 {
		return
	}
	m.excludedRows.Add(float64(n))
}

func (m *PulseMetrics) IncNarrative(outcome string) {
	if m == nil || m.narrative == nil {
		return
	}
	m.narrative.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetMomentum publishes the latest snapshot totals.
func (m *PulseMetrics) SetMomentum(growers, decliners, net float64) {
	if m == nil || m.momentum == nil {
		return
	}
	m.momentum.WithLabelValues("growers").Set(growers)
	m.momentum.WithLabelValues("decliners").Set(decliners)
	m.momentum.WithLabelValues("net").Set(net)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "source_unavailable"
	OutcomeRejected    = "rejected"
	OutcomeFailed      = "internal_error"
)

// Metrics provides observability for the refresh pipeline.
type Metrics struct {
	// Refresh passes by outcome
	RefreshTotal *prometheus.CounterVec

	// End-to-end refresh latency
	RefreshDuration prometheus.Histogram

	// Source fetch latencies by source
	SourceLatency *prometheus.HistogramVec

	RecordsSaved   prometheus.Counter
	RecordsDropped prometheus.Counter

	RenderFailures prometheus.Counter
}

// New registers the refresh metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_refresh_total",
			Help: "Total refresh passes by outcome",
		}, []string{"outcome"}),

		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_refresh_duration_seconds",
			Help:    "Duration of a full refresh pass",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		SourceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_source_fetch_duration_seconds",
			Help:    "Duration of external source fetches by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}), // source: "countries", "rates"

		RecordsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalog_records_saved_total",
			Help: "Total country records upserted by refresh passes",
		}),

		RecordsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalog_records_dropped_total",
			Help: "Total raw entries dropped for missing name or population",
		}),

		RenderFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalog_summary_render_failures_total",
			Help: "Total summary image render failures",
		}),
	}
}

// IncrementRefresh records a refresh outcome.
func (m *Metrics) IncrementRefresh(outcome string) {
	if m != nil {
		m.RefreshTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveRefreshDuration records the total pass duration.
func (m *Metrics) ObserveRefreshDuration(d time.Duration) {
	if m != nil {
		m.RefreshDuration.Observe(d.Seconds())
	}
}

// ObserveSourceLatency records the duration of fetching one source.
func (m *Metrics) ObserveSourceLatency(source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// AddRecords records the saved and dropped counts of one merge stage.
func (m *Metrics) AddRecords(saved, dropped int) {
	if m != nil {
		m.RecordsSaved.Add(float64(saved))
		m.RecordsDropped.Add(float64(dropped))
	}
}

func (m *Metrics) IncrementRenderFailure() {
	if m != nil {
		m.RenderFailures.Inc()
	}
}

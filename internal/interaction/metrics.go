package interaction

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricInteractionsRecorded = "interactions_recorded_total"
	MetricRecomputeFailures    = "rating_recompute_failures_total"
	MetricViewCountIncrements  = "book_view_increments_total"
	MetricRecordingRejected    = "interactions_rejected_total"
)

// Metrics contains Prometheus metrics for the interaction engine.
// All operations are thread-safe.
type Metrics struct {
	recorded            *prometheus.CounterVec
	recomputeFailures   prometheus.Counter
	viewCountIncrements prometheus.Counter
	rejected            *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register them
// with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricInteractionsRecorded,
				Help: "Total number of interactions recorded, by kind",
			},
			[]string{"kind"},
		),
		recomputeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRecomputeFailures,
				Help: "Total number of rating recomputations that failed and were swallowed",
			},
		),
		viewCountIncrements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricViewCountIncrements,
				Help: "Total number of atomic view-count increments applied to books",
			},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRecordingRejected,
				Help: "Total number of recording attempts rejected by validation, by reason",
			},
			[]string{"reason"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRecorded increments the recorded counter for a kind.
func (m *Metrics) IncRecorded(kind Kind) {
	m.recorded.WithLabelValues(string(kind)).Inc()
}

// IncRecomputeFailures increments the swallowed-recompute counter.
func (m *Metrics) IncRecomputeFailures() {
	m.recomputeFailures.Inc()
}

// IncViewCountIncrements increments the view-count increment counter.
func (m *Metrics) IncViewCountIncrements() {
	m.viewCountIncrements.Inc()
}

// IncRejected increments the rejected counter for a validation reason.
func (m *Metrics) IncRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// Collectors returns all Prometheus collectors for registration and testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recorded,
		m.recomputeFailures,
		m.viewCountIncrements,
		m.rejected,
	}
}

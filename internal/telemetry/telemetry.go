// Package telemetry defines the in-process Prometheus collectors an
// Engine and its Registry report against. Nothing here starts an HTTP
// listener: callers that want exposition register a handler against the
// returned registry themselves.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector one Engine/Registry pair reports
// against, labeled by strategy name so one process can run many
// strategies without collisions.
type Metrics struct {
	BarsProcessed    *prometheus.CounterVec
	TransitionsFired *prometheus.CounterVec
	FeatureErrors    *prometheus.CounterVec
	DegradedFeatures *prometheus.GaugeVec
	OutOfOrderBars   *prometheus.CounterVec
	BrokerErrors     *prometheus.CounterVec
}

// NewMetrics constructs a fresh Metrics bundle and registers every
// collector against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BarsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratcore_bars_processed_total",
			Help: "Total number of bars processed per strategy.",
		}, []string{"strategy", "symbol"}),
		TransitionsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratcore_transitions_fired_total",
			Help: "Total number of FSM transitions fired, by source and destination state.",
		}, []string{"strategy", "from", "to"}),
		FeatureErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratcore_feature_errors_total",
			Help: "Total number of feature evaluation failures, by feature name.",
		}, []string{"strategy", "feature"}),
		DegradedFeatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stratcore_degraded_features",
			Help: "1 if a feature currently carries the sticky DegradedFeature flag, else 0.",
		}, []string{"strategy", "feature"}),
		OutOfOrderBars: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratcore_out_of_order_bars_total",
			Help: "Total number of bars dropped for non-increasing timestamps.",
		}, []string{"strategy"}),
		BrokerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratcore_broker_errors_total",
			Help: "Total number of broker action failures, by action kind.",
		}, []string{"strategy", "action"}),
	}

	reg.MustRegister(
		m.BarsProcessed,
		m.TransitionsFired,
		m.FeatureErrors,
		m.DegradedFeatures,
		m.OutOfOrderBars,
		m.BrokerErrors,
	)
	return m
}

// Observation is one BarOutcome-shaped summary that Record applies to
// every collector. Kept as plain scalar fields rather than taking runtime.BarOutcome
// directly so this package never depends on internal/runtime.
type Observation struct {
	Strategy        string
	Symbol          string
	OutOfOrder      bool
	TransitionFrom  string
	TransitionTo    string
	FeatureFailures []string
	DegradedNames   []string
	BrokerFailures  []string
}

// Record applies one Observation to m.
func (m *Metrics) Record(o Observation) {
	if o.OutOfOrder {
		m.OutOfOrderBars.WithLabelValues(o.Strategy).Inc()
		return
	}
	m.BarsProcessed.WithLabelValues(o.Strategy, o.Symbol).Inc()
	if o.TransitionFrom != "" {
		m.TransitionsFired.WithLabelValues(o.Strategy, o.TransitionFrom, o.TransitionTo).Inc()
	}
	for _, name := range o.FeatureFailures {
		m.FeatureErrors.WithLabelValues(o.Strategy, name).Inc()
	}
	for _, name := range o.DegradedNames {
		m.DegradedFeatures.WithLabelValues(o.Strategy, name).Set(1)
	}
	for _, action := range o.BrokerFailures {
		m.BrokerErrors.WithLabelValues(o.Strategy, action).Inc()
	}
}

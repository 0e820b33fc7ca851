package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := <-ch
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestRecordIncrementsBarsProcessed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Record(Observation{Strategy: "s1", Symbol: "AAPL"})
	m.Record(Observation{Strategy: "s1", Symbol: "AAPL"})

	got := counterValue(t, m.BarsProcessed.WithLabelValues("s1", "AAPL"))
	if got != 2 {
		t.Errorf("BarsProcessed = %v, want 2", got)
	}
}

func TestRecordOutOfOrderSkipsBarsProcessed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Record(Observation{Strategy: "s1", Symbol: "AAPL", OutOfOrder: true})

	if got := counterValue(t, m.OutOfOrderBars.WithLabelValues("s1")); got != 1 {
		t.Errorf("OutOfOrderBars = %v, want 1", got)
	}
	if got := counterValue(t, m.BarsProcessed.WithLabelValues("s1", "AAPL")); got != 0 {
		t.Errorf("BarsProcessed = %v, want 0 on an out-of-order bar", got)
	}
}

func TestRecordTransitionAndDegraded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Record(Observation{
		Strategy:       "s1",
		Symbol:         "AAPL",
		TransitionFrom: "IDLE",
		TransitionTo:   "ARMED",
		DegradedNames:  []string{"rsi14"},
	})

	if got := counterValue(t, m.TransitionsFired.WithLabelValues("s1", "IDLE", "ARMED")); got != 1 {
		t.Errorf("TransitionsFired = %v, want 1", got)
	}
	if got := counterValue(t, m.DegradedFeatures.WithLabelValues("s1", "rsi14")); got != 1 {
		t.Errorf("DegradedFeatures = %v, want 1", got)
	}
}

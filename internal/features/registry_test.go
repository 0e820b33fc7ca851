package features

import (
	"errors"
	"math"
	"testing"

	"github.com/atlas-desktop/stratcore/internal/expr"
	"github.com/atlas-desktop/stratcore/pkg/bar"
)

func TestTopoSortOrdersDepsBeforeDependents(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{
		Name: "spread",
		Kind: KindIndicator,
		Type: expr.TypeNumber,
		Deps: []string{"high", "low"},
		Eval: func(c Context) (float64, error) { return c.Bar.High - c.Bar.Low, nil },
	})

	plan, err := r.TopoSort([]string{"spread"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	index := make(map[string]int)
	for i, name := range plan {
		index[name] = i
	}
	if index["high"] >= index["spread"] || index["low"] >= index["spread"] {
		t.Errorf("dependencies must precede dependents, got plan %v", plan)
	}
}

func TestTopoSortCycleDetected(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{Name: "a", Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"b"}})
	r.Register(Descriptor{Name: "b", Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"a"}})

	_, err := r.TopoSort([]string{"a"})
	var cycleErr *CycleDetectedError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleDetectedError, got %v", err)
	}
}

func TestTopoSortUnknownFeature(t *testing.T) {
	r := NewRegistry()
	_, err := r.TopoSort([]string{"doesNotExist"})
	var unkErr *UnknownFeatureError
	if !errors.As(err, &unkErr) {
		t.Fatalf("expected UnknownFeatureError, got %v", err)
	}
}

func TestEvaluateCatchesPanicAsFeatureError(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{
		Name: "boom",
		Kind: KindIndicator,
		Type: expr.TypeNumber,
		Deps: nil,
		Eval: func(c Context) (float64, error) { panic("deliberate") },
	})

	b := bar.Bar{Timestamp: 1, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	values := map[string]float64{}
	failures := Evaluate(r, []string{"close", "boom"}, b, nil, values)

	if len(failures) != 1 || failures[0].Name != "boom" {
		t.Fatalf("expected one failure for 'boom', got %v", failures)
	}
	if !math.IsNaN(values["boom"]) {
		t.Errorf("boom = %v, want NaN", values["boom"])
	}
	if values["close"] != 1 {
		t.Errorf("close = %v, want 1", values["close"])
	}
}

func TestEvaluateBuiltinsBypassDescriptor(t *testing.T) {
	r := NewRegistry()
	b := bar.Bar{Timestamp: 1, Open: 10, High: 12, Low: 9, Close: 11, Volume: 500}
	values := map[string]float64{}
	failures := Evaluate(r, []string{"open", "high", "low", "close", "volume", "price"}, b, nil, values)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if values["open"] != 10 || values["high"] != 12 || values["low"] != 9 || values["close"] != 11 || values["volume"] != 500 || values["price"] != 11 {
		t.Errorf("builtin values = %v, want bar fields", values)
	}
}

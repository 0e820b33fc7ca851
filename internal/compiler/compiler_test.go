package compiler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/atlas-desktop/stratcore/pkg/ir"
)

const armThenPlaceDoc = `
meta:
  name: arm-then-place
symbol: AAPL
timeframe: 1d
orderPlans:
  - id: entry1
    symbol: AAPL
    side: buy
    qty: 10
    targetEntryPrice: 100
    entryZone:
      low: 95
      high: 100
    stopPrice: 80
    brackets:
      - price: 110
        ratioOfPosition: 1.0
transitions:
  - from: IDLE
    to: ARMED
    when: "close > ema20"
    actions: []
  - from: ARMED
    to: PLACED
    when: "close > 95"
    actions:
      - kind: submitOrderPlan
        planId: entry1
`

func TestCompileArmThenPlace(t *testing.T) {
	res, err := Compile(armThenPlaceDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IR.Symbol != "AAPL" || res.IR.InitialState != ir.StateIdle {
		t.Errorf("unexpected IR header: %+v", res.IR)
	}

	idleTransitions := res.IR.Transitions[ir.StateIdle]
	if len(idleTransitions) != 1 || idleTransitions[0].To != ir.StateArmed {
		t.Fatalf("expected one IDLE->ARMED transition, got %+v", idleTransitions)
	}

	armedTransitions := res.IR.Transitions[ir.StateArmed]
	if len(armedTransitions) != 1 || armedTransitions[0].To != ir.StatePlaced {
		t.Fatalf("expected one ARMED->PLACED transition, got %+v", armedTransitions)
	}
	if len(armedTransitions[0].Actions) != 1 || armedTransitions[0].Actions[0].Kind != ir.ActionSubmitOrderPlan {
		t.Fatalf("expected a single submitOrderPlan action, got %+v", armedTransitions[0].Actions)
	}

	foundClose, foundEMA := false, false
	for _, name := range res.IR.FeaturePlan {
		if name == "close" {
			foundClose = true
		}
		if name == "ema20" {
			foundEMA = true
		}
	}
	if !foundClose || !foundEMA {
		t.Errorf("expected feature plan to include close and ema20, got %v", res.IR.FeaturePlan)
	}
}

const loweredInvalidationDoc = `
meta:
  name: lowered-invalidation
symbol: AAPL
timeframe: 1h
orderPlans:
  - id: entry1
    symbol: AAPL
    side: buy
    qty: 5
    targetEntryPrice: 50
    stopPrice: 40
states:
  - name: MANAGING
    invalidate_when_any:
      - "rsi14 > 80"
      - "close < 30"
transitions:
  - from: IDLE
    to: MANAGING
    when: "close > 10"
    actions: []
`

func TestCompileLowersInvalidateWhenAny(t *testing.T) {
	res, err := Compile(loweredInvalidationDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	managing := res.IR.Transitions[ir.StateManaging]
	if len(managing) != 2 {
		t.Fatalf("expected 2 synthetic transitions out of MANAGING, got %d: %+v", len(managing), managing)
	}
	for _, tr := range managing {
		if tr.To != ir.StateExited {
			t.Errorf("lowered transition targets %q, want EXITED", tr.To)
		}
		if len(tr.Actions) != 1 || tr.Actions[0].Kind != ir.ActionClosePosition || tr.Actions[0].Reason != "invalidated" {
			t.Errorf("lowered transition actions = %+v, want single ClosePosition(\"invalidated\")", tr.Actions)
		}
	}
}

func TestCompileDeterministic(t *testing.T) {
	r1, err := Compile(armThenPlaceDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Compile(armThenPlaceDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(r1.IR, r2.IR) {
		t.Errorf("compiling the same document twice produced different IRs:\n%+v\nvs\n%+v", r1.IR, r2.IR)
	}
}

func TestCompileRejectsUnknownKey(t *testing.T) {
	doc := armThenPlaceDoc + "\nbogusTopLevelKey: true\n"
	if _, err := Compile(doc); err == nil {
		t.Error("expected schema error for unknown top-level key")
	}
}

func TestCompileRejectsInvalidOrderPlan(t *testing.T) {
	const badDoc = `
meta:
  name: bad-plan
symbol: AAPL
timeframe: 1d
orderPlans:
  - id: entry1
    symbol: AAPL
    side: buy
    qty: 10
    targetEntryPrice: 100
    stopPrice: 120
transitions:
  - from: IDLE
    to: ARMED
    when: "close > 0"
    actions: []
`
	_, err := Compile(badDoc)
	var invalidErr *InvalidOrderPlanError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidOrderPlanError, got %v", err)
	}
}

func TestCompileRejectsUnknownFeature(t *testing.T) {
	const doc = `
meta:
  name: bad-feature
symbol: AAPL
timeframe: 1d
orderPlans:
  - id: entry1
    symbol: AAPL
    side: buy
    qty: 10
    targetEntryPrice: 100
    stopPrice: 80
transitions:
  - from: IDLE
    to: ARMED
    when: "doesNotExist > 0"
    actions: []
`
	if _, err := Compile(doc); err == nil {
		t.Error("expected an error referencing an undeclared feature")
	}
}

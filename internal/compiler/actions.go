package compiler

import (
	"fmt"

	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// buildActions translates a transition's declared actions into their IR
// form, cross-checking any referenced planId against the compiled order
// plans.
func buildActions(docs []DocAction, plans map[string]ir.OrderPlan) ([]ir.Action, error) {
	out := make([]ir.Action, len(docs))
	for i, d := range docs {
		a, err := buildAction(d, plans)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func buildAction(d DocAction, plans map[string]ir.OrderPlan) (ir.Action, error) {
	switch d.Kind {
	case "submitOrderPlan":
		if _, ok := plans[d.PlanID]; !ok {
			return ir.Action{}, &SchemaError{Field: "actions[].planId", Message: fmt.Sprintf("references undeclared order plan %q", d.PlanID)}
		}
		return ir.Action{Kind: ir.ActionSubmitOrderPlan, PlanID: d.PlanID}, nil
	case "cancelOpenEntries":
		return ir.Action{Kind: ir.ActionCancelOpenEntries}, nil
	case "closePosition":
		return ir.Action{Kind: ir.ActionClosePosition, Reason: d.Reason}, nil
	case "startTimer":
		if d.TimerName == "" {
			return ir.Action{}, &SchemaError{Field: "actions[].timerName", Message: "required for startTimer"}
		}
		return ir.Action{Kind: ir.ActionStartTimer, TimerName: d.TimerName, DurationMs: d.DurationMs}, nil
	case "cancelTimer":
		if d.TimerName == "" {
			return ir.Action{}, &SchemaError{Field: "actions[].timerName", Message: "required for cancelTimer"}
		}
		return ir.Action{Kind: ir.ActionCancelTimer, TimerName: d.TimerName}, nil
	case "emitSignal":
		return ir.Action{Kind: ir.ActionEmitSignal, SignalLabel: d.SignalLabel, SignalPayload: d.SignalPayload}, nil
	default:
		return ir.Action{}, &SchemaError{Field: "actions[].kind", Message: fmt.Sprintf("unknown action kind %q", d.Kind)}
	}
}

package runtime

import (
	"context"
	"fmt"

	"github.com/atlas-desktop/stratcore/internal/broker"
	"github.com/atlas-desktop/stratcore/pkg/bar"
	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// applyAction performs one transition action's side effect and returns
// any log entries it produced. In replay mode the broker is never
// called; the action is logged as suppressed instead, so that replay
// stays byte-identical to the live run regardless of what the live
// broker returned.
func (e *Engine) applyAction(ctx context.Context, b bar.Bar, action ir.Action) []RuntimeLog {
	if e.cfg.Replay {
		return []RuntimeLog{{Timestamp: b.Timestamp, Kind: actionLogKind(action.Kind), Message: "replay: broker call suppressed"}}
	}

	switch action.Kind {
	case ir.ActionSubmitOrderPlan:
		return e.doSubmitOrderPlan(ctx, b, action.PlanID)
	case ir.ActionCancelOpenEntries:
		return e.doCancelOpenEntries(ctx, b)
	case ir.ActionClosePosition:
		return e.doClosePosition(ctx, b, action.Reason)
	case ir.ActionStartTimer:
		e.state.ActiveTimers[action.TimerName] = b.Timestamp + action.DurationMs
		return nil
	case ir.ActionCancelTimer:
		delete(e.state.ActiveTimers, action.TimerName)
		return nil
	case ir.ActionEmitSignal:
		return []RuntimeLog{{Timestamp: b.Timestamp, Kind: LogSignalEmitted, Message: fmt.Sprintf("%s: %v", action.SignalLabel, action.SignalPayload)}}
	}
	return nil
}

func actionLogKind(k ir.ActionKind) string {
	switch k {
	case ir.ActionSubmitOrderPlan:
		return "SubmitOrderPlan"
	case ir.ActionCancelOpenEntries:
		return "CancelOpenEntries"
	case ir.ActionClosePosition:
		return "ClosePosition"
	case ir.ActionStartTimer:
		return "StartTimer"
	case ir.ActionCancelTimer:
		return "CancelTimer"
	case ir.ActionEmitSignal:
		return LogSignalEmitted
	}
	return "Unknown"
}

func (e *Engine) doSubmitOrderPlan(ctx context.Context, b bar.Bar, planID string) []RuntimeLog {
	plan, ok := e.ir.OrderPlans[planID]
	if !ok {
		return []RuntimeLog{{Timestamp: b.Timestamp, Kind: LogBrokerError, Message: fmt.Sprintf("submitOrderPlan: unknown plan %q", planID)}}
	}
	handles, err := e.broker.SubmitOrderPlan(ctx, plan, e.env)
	if err != nil {
		return []RuntimeLog{{Timestamp: b.Timestamp, Kind: LogBrokerError, Message: fmt.Sprintf("submitOrderPlan(%s): %v", planID, err)}}
	}
	e.state.OpenOrders[planID] = append(e.state.OpenOrders[planID], handles...)
	return nil
}

func (e *Engine) doCancelOpenEntries(ctx context.Context, b bar.Bar) []RuntimeLog {
	symbol := e.ir.Symbol
	var all []broker.OrderHandle
	for _, handles := range e.state.OpenOrders {
		all = append(all, handles...)
	}
	if err := e.broker.CancelOpenEntries(ctx, symbol, all, e.env); err != nil {
		return []RuntimeLog{{Timestamp: b.Timestamp, Kind: LogBrokerError, Message: fmt.Sprintf("cancelOpenEntries: %v", err)}}
	}
	e.state.OpenOrders = make(map[string][]broker.OrderHandle)
	return nil
}

func (e *Engine) doClosePosition(ctx context.Context, b bar.Bar, reason string) []RuntimeLog {
	qty, side := e.netPosition()
	if qty == 0 {
		return []RuntimeLog{{Timestamp: b.Timestamp, Kind: LogSignalEmitted, Message: fmt.Sprintf("closePosition(%s): no open position", reason)}}
	}
	if _, err := e.broker.SubmitMarketOrder(ctx, e.ir.Symbol, qty, side, e.env); err != nil {
		return []RuntimeLog{{Timestamp: b.Timestamp, Kind: LogBrokerError, Message: fmt.Sprintf("closePosition(%s): %v", reason, err)}}
	}
	e.state.OpenOrders = make(map[string][]broker.OrderHandle)
	return nil
}

// netPosition sums every tracked order handle's signed quantity (buy
// positive, sell negative) to find the net open position, then returns
// the quantity and side that would flatten it.
func (e *Engine) netPosition() (int64, ir.OrderSide) {
	var signed int64
	for _, handles := range e.state.OpenOrders {
		for _, h := range handles {
			if h.Side == ir.SideBuy {
				signed += h.Qty
			} else {
				signed -= h.Qty
			}
		}
	}
	if signed > 0 {
		return signed, ir.SideSell
	}
	if signed < 0 {
		return -signed, ir.SideBuy
	}
	return 0, ir.SideBuy
}

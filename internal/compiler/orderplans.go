package compiler

import (
	"fmt"

	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// validateAndBuildOrderPlans checks bracket ratios sum to at most 1.0,
// and for side=buy, that stopPrice is below both the entry zone's low
// and the target entry price, with every bracket priced above the
// target entry (mirrored for side=sell).
func validateAndBuildOrderPlans(docs []DocOrderPlan) (map[string]ir.OrderPlan, error) {
	plans := make(map[string]ir.OrderPlan, len(docs))

	for _, d := range docs {
		var zone *ir.PriceZone
		if d.EntryZone != nil {
			zone = &ir.PriceZone{Low: d.EntryZone.Low, High: d.EntryZone.High}
		}

		brackets := make([]ir.Bracket, len(d.Brackets))
		ratioSum := 0.0
		for i, b := range d.Brackets {
			brackets[i] = ir.Bracket{Price: b.Price, RatioOfPosition: b.RatioOfPosition}
			if b.RatioOfPosition <= 0 || b.RatioOfPosition > 1 {
				return nil, &InvalidOrderPlanError{PlanID: d.ID, Reason: fmt.Sprintf("bracket ratio %v is not in (0,1]", b.RatioOfPosition)}
			}
			ratioSum += b.RatioOfPosition
		}
		if ratioSum > 1.0 {
			return nil, &InvalidOrderPlanError{PlanID: d.ID, Reason: fmt.Sprintf("bracket ratios sum to %v, exceeding 1.0", ratioSum)}
		}

		side := ir.OrderSide(d.Side)

		lowBound := d.TargetEntryPrice
		if zone != nil && zone.Low < lowBound {
			lowBound = zone.Low
		}
		switch side {
		case ir.SideBuy:
			if d.StopPrice >= lowBound {
				return nil, &InvalidOrderPlanError{PlanID: d.ID, Reason: fmt.Sprintf("stopPrice %v must be below min(entryZone.low, targetEntryPrice) = %v", d.StopPrice, lowBound)}
			}
			for _, b := range brackets {
				if b.Price <= d.TargetEntryPrice {
					return nil, &InvalidOrderPlanError{PlanID: d.ID, Reason: fmt.Sprintf("bracket price %v must exceed targetEntryPrice %v for side=buy", b.Price, d.TargetEntryPrice)}
				}
			}
		case ir.SideSell:
			highBound := d.TargetEntryPrice
			if zone != nil && zone.High > highBound {
				highBound = zone.High
			}
			if d.StopPrice <= highBound {
				return nil, &InvalidOrderPlanError{PlanID: d.ID, Reason: fmt.Sprintf("stopPrice %v must be above max(entryZone.high, targetEntryPrice) = %v", d.StopPrice, highBound)}
			}
			for _, b := range brackets {
				if b.Price >= d.TargetEntryPrice {
					return nil, &InvalidOrderPlanError{PlanID: d.ID, Reason: fmt.Sprintf("bracket price %v must be below targetEntryPrice %v for side=sell", b.Price, d.TargetEntryPrice)}
				}
			}
		default:
			return nil, &InvalidOrderPlanError{PlanID: d.ID, Reason: fmt.Sprintf("unknown side %q", d.Side)}
		}

		plans[d.ID] = ir.OrderPlan{
			ID:                d.ID,
			Symbol:            d.Symbol,
			Side:              side,
			Qty:               d.Qty,
			TargetEntryPrice:  d.TargetEntryPrice,
			EntryZone:         zone,
			StopPrice:         d.StopPrice,
			Brackets:          brackets,
			InvalidationLevel: d.InvalidationLevel,
		}
	}

	return plans, nil
}

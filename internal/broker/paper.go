package broker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// PaperBroker is a deterministic, in-process Contract implementation: it
// never touches a venue, fills every order at the plan's stated price, and
// derives order identifiers from a counter kept per account ID inside this
// PaperBroker, so the same sequence of calls against a fresh PaperBroker
// yields the same identifiers. The counter is not per Engine: Engines that
// share one PaperBroker and account ID draw from the same sequence. It is
// safe for concurrent use by multiple Engines sharing one account.
type PaperBroker struct {
	logger *zap.Logger

	mu       sync.Mutex
	counters map[string]int64 // accountID -> next order sequence
	open     map[string][]OrderHandle
}

// NewPaperBroker constructs a PaperBroker. logger is named "broker.paper".
func NewPaperBroker(logger *zap.Logger) *PaperBroker {
	return &PaperBroker{
		logger:   logger.Named("broker.paper"),
		counters: make(map[string]int64),
		open:     make(map[string][]OrderHandle),
	}
}

func (p *PaperBroker) nextOrderID(accountID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.counters[accountID] + 1
	p.counters[accountID] = n
	return fmt.Sprintf("paper-%s-%06d", accountID, n)
}

// SubmitOrderPlan fills the entry at TargetEntryPrice and every bracket at
// its declared price, returning one handle per leg. Respects env.DryRun
// only insofar as it never performs I/O regardless — there is no live
// path to suppress.
func (p *PaperBroker) SubmitOrderPlan(ctx context.Context, plan ir.OrderPlan, env Env) ([]OrderHandle, error) {
	if !env.DryRun && !env.AllowLiveOrders {
		return nil, fmt.Errorf("broker: live orders disallowed for account %s", env.AccountID)
	}
	if env.MaxOrderQty > 0 && plan.Qty > env.MaxOrderQty {
		return nil, fmt.Errorf("broker: order qty %d exceeds env max %d", plan.Qty, env.MaxOrderQty)
	}

	entry := OrderHandle{
		OrderID: p.nextOrderID(env.AccountID),
		PlanID:  plan.ID,
		Symbol:  plan.Symbol,
		Side:    plan.Side,
		Qty:     plan.Qty,
		Price:   plan.TargetEntryPrice,
	}
	handles := []OrderHandle{entry}

	for _, b := range plan.Brackets {
		qty := int64(float64(plan.Qty) * b.RatioOfPosition)
		handles = append(handles, OrderHandle{
			OrderID:   p.nextOrderID(env.AccountID),
			PlanID:    plan.ID,
			Symbol:    plan.Symbol,
			Side:      oppositeSide(plan.Side),
			Qty:       qty,
			Price:     b.Price,
			IsBracket: true,
		})
	}

	p.mu.Lock()
	p.open[plan.Symbol] = append(p.open[plan.Symbol], handles...)
	p.mu.Unlock()

	p.logger.Debug("submitted order plan",
		zap.String("planId", plan.ID),
		zap.String("symbol", plan.Symbol),
		zap.Int("legs", len(handles)),
		zap.Bool("dryRun", env.DryRun),
	)
	return handles, nil
}

// SubmitMarketOrder fills immediately at no particular price (the caller
// supplies price context via the bar if it needs one); price is left 0
// since paper fills are by definition not quote-driven here.
func (p *PaperBroker) SubmitMarketOrder(ctx context.Context, symbol string, qty int64, side ir.OrderSide, env Env) (OrderHandle, error) {
	h := OrderHandle{
		OrderID: p.nextOrderID(env.AccountID),
		Symbol:  symbol,
		Side:    side,
		Qty:     qty,
	}
	p.logger.Debug("submitted market order",
		zap.String("symbol", symbol),
		zap.Int64("qty", qty),
		zap.Bool("dryRun", env.DryRun),
	)
	return h, nil
}

// CancelOpenEntries removes open handles for symbol from internal
// bookkeeping. It never errors: cancelling an already-filled or
// already-cancelled handle is a no-op.
func (p *PaperBroker) CancelOpenEntries(ctx context.Context, symbol string, open []OrderHandle, env Env) error {
	cancel := make(map[string]struct{}, len(open))
	for _, h := range open {
		cancel[h.OrderID] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	remaining := p.open[symbol][:0]
	for _, h := range p.open[symbol] {
		if _, ok := cancel[h.OrderID]; !ok {
			remaining = append(remaining, h)
		}
	}
	p.open[symbol] = remaining

	p.logger.Debug("cancelled open entries", zap.String("symbol", symbol), zap.Int("count", len(open)))
	return nil
}

// GetOpenOrders returns a snapshot of currently tracked handles for symbol.
func (p *PaperBroker) GetOpenOrders(ctx context.Context, symbol string, env Env) ([]OrderHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]OrderHandle, len(p.open[symbol]))
	copy(out, p.open[symbol])
	return out, nil
}

func oppositeSide(side ir.OrderSide) ir.OrderSide {
	if side == ir.SideBuy {
		return ir.SideSell
	}
	return ir.SideBuy
}

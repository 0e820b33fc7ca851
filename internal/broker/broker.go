// Package broker defines the abstract boundary between the FSM runtime
// engine and order execution: the Contract interface, the per-call
// environment, and a deterministic paper-trading implementation.
package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// Env carries the account and risk configuration passed to every broker
// call. Adapters must honour DryRun (no external effect) and must still
// return deterministic order identifiers in that mode.
type Env struct {
	AccountID            string
	DryRun               bool
	AllowLiveOrders      bool
	PerSymbolOrderCap    int
	MaxOrderQty          int64
	MaxNotionalPerSymbol decimal.Decimal
	DailyLossLimit       decimal.Decimal
}

// OrderHandle is what a broker call returns: enough to track and later
// cancel or report on an order without retaining adapter-specific state.
type OrderHandle struct {
	OrderID  string
	PlanID   string
	Symbol   string
	Side     ir.OrderSide
	Qty      int64
	Price    float64
	IsBracket bool
}

// Contract is the capability set the FSM runtime engine calls into.
// Implementations MUST be internally thread-safe: the runtime model
// permits many Engines to share one broker adapter concurrently.
type Contract interface {
	SubmitOrderPlan(ctx context.Context, plan ir.OrderPlan, env Env) ([]OrderHandle, error)
	SubmitMarketOrder(ctx context.Context, symbol string, qty int64, side ir.OrderSide, env Env) (OrderHandle, error)
	CancelOpenEntries(ctx context.Context, symbol string, open []OrderHandle, env Env) error
	GetOpenOrders(ctx context.Context, symbol string, env Env) ([]OrderHandle, error)
}

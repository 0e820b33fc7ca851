// Package ir defines the compiled, immutable representation of a strategy:
// the feature plan, order plans, and finite state machine produced by the
// compiler and consumed by the runtime engine.
package ir

import "github.com/atlas-desktop/stratcore/internal/expr"

// StrategyState names a vertex of the strategy FSM. The canonical states
// are declared below; a document may extend the set with additional
// labels, but IDLE and EXITED always carry their canonical meaning.
type StrategyState string

const (
	StateIdle      StrategyState = "IDLE"
	StateArmed     StrategyState = "ARMED"
	StatePlaced    StrategyState = "PLACED"
	StateManaging  StrategyState = "MANAGING"
	StateExited    StrategyState = "EXITED"
)

// OrderSide is the direction of an OrderPlan.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// PriceZone is an inclusive [Low, High] band, used for entryZone.
type PriceZone struct {
	Low  float64
	High float64
}

// Bracket is a partial take-profit level.
type Bracket struct {
	Price          float64
	RatioOfPosition float64
}

// OrderPlan is a named intent to enter a position. See package-level
// invariants enforced by the compiler at emission time: the sum of
// bracket ratios does not exceed 1.0, and for side=buy,
// StopPrice < min(EntryZone.Low, TargetEntryPrice) with every bracket
// price above TargetEntryPrice (mirrored for side=sell).
type OrderPlan struct {
	ID                string
	Symbol            string
	Side              OrderSide
	Qty               int64
	TargetEntryPrice  float64
	EntryZone         *PriceZone
	StopPrice         float64
	Brackets          []Bracket
	InvalidationLevel *float64
}

// ActionKind tags the variant held by an Action.
type ActionKind int

const (
	ActionSubmitOrderPlan ActionKind = iota
	ActionCancelOpenEntries
	ActionClosePosition
	ActionStartTimer
	ActionCancelTimer
	ActionEmitSignal
)

// Action is the tagged union of side effects a Transition may perform.
// Only the fields relevant to Kind are populated.
type Action struct {
	Kind ActionKind

	PlanID string // ActionSubmitOrderPlan

	Reason string // ActionClosePosition

	TimerName string        // ActionStartTimer, ActionCancelTimer
	DurationMs int64        // ActionStartTimer

	SignalLabel   string         // ActionEmitSignal
	SignalPayload map[string]any // ActionEmitSignal
}

// Transition is one edge of the FSM: fires when its guard evaluates true
// and no earlier-declared transition from the same state already fired
// this bar.
type Transition struct {
	From    StrategyState
	To      StrategyState
	When    expr.Expr
	Actions []Action
}

// Meta carries document-level metadata, preserved verbatim in the IR.
type Meta struct {
	Name    string
	Version string
}

// CompiledIR is the immutable output of the compiler: safe to share and
// execute across any number of concurrent Engines.
type CompiledIR struct {
	Symbol       string
	Timeframe    string
	InitialState StrategyState

	// FeaturePlan is the deterministic, dependency-ordered list of feature
	// names that must be evaluated on every bar to resolve every guard in
	// Transitions, whether or not its source state is reachable.
	FeaturePlan []string

	// FeatureTypes maps every feature name appearing anywhere in the IR to
	// its static type, needed to re-typecheck or explain guard failures.
	FeatureTypes map[string]expr.Type

	OrderPlans map[string]OrderPlan

	// Transitions is grouped by source state, in declaration order — the
	// order that determines first-true-guard-wins at runtime.
	Transitions map[StrategyState][]Transition

	Meta Meta
}

// Package runtime implements the bar-driven FSM executor: given compiled
// IR, a feature registry, and a broker adapter, it evaluates features,
// fires at most one transition per bar, dispatches actions, and keeps
// deterministic, snapshot-able per-strategy state.
package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atlas-desktop/stratcore/internal/broker"
	"github.com/atlas-desktop/stratcore/internal/expr"
	"github.com/atlas-desktop/stratcore/internal/features"
	"github.com/atlas-desktop/stratcore/pkg/bar"
	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// defaultHistoryCapacity is the bounded ring's default size: large enough
// to cover the 52-week-high/low lookback, the widest window any built-in
// indicator uses.
const defaultHistoryCapacity = 260

// defaultLogCapacity is RuntimeState.Log's default ring-buffer size.
const defaultLogCapacity = 1024

const degradedFeatureThreshold = 3

// timerFeatureName builds the synthetic boolean feature name a fired
// timer injects for the bar it expires on. Identifiers in this module's
// expression grammar never contain '.', so the timer name is embedded
// with underscores rather than the dotted form a less constrained
// grammar might use.
func timerFeatureName(timerName string) string {
	return fmt.Sprintf("timer_%s_expired", timerName)
}

// Config bounds an Engine's resource use.
type Config struct {
	HistoryCapacity int
	// LogCapacity bounds RuntimeState.Log's ring buffer; 0 selects
	// defaultLogCapacity.
	LogCapacity int
	// Replay suppresses broker calls (actions are logged only). Required
	// for byte-identical replay against a snapshot taken mid-run.
	Replay bool
}

// BarOutcome is everything processBar produced for one bar.
type BarOutcome struct {
	TransitionFired *TransitionRef
	ActionsEmitted  []ir.Action
	FeatureValues   map[string]float64
	Logs            []RuntimeLog
}

// TransitionRef names the edge that fired, if any.
type TransitionRef struct {
	From ir.StrategyState
	To   ir.StrategyState
}

// Engine drives one compiled strategy's FSM, one symbol at a time. An
// Engine is not safe for concurrent processBar calls; the contract is
// single-threaded cooperative per instance, as for the RuntimeState it
// exclusively owns.
type Engine struct {
	ir       *ir.CompiledIR
	registry *features.Registry
	broker   broker.Contract
	env      broker.Env
	log      *zap.Logger
	cfg      Config

	state *RuntimeState
}

// New constructs an Engine at ir.InitialState with empty runtime state.
func New(compiled *ir.CompiledIR, registry *features.Registry, brokerAdapter broker.Contract, env broker.Env, cfg Config, log *zap.Logger) *Engine {
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = defaultHistoryCapacity
	}
	if cfg.LogCapacity <= 0 {
		cfg.LogCapacity = defaultLogCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		ir:       compiled,
		registry: registry,
		broker:   brokerAdapter,
		env:      env,
		log:      log.Named("runtime.engine"),
		cfg:      cfg,
		state: &RuntimeState{
			CurrentState:        compiled.InitialState,
			OpenOrders:          make(map[string][]broker.OrderHandle),
			ActiveTimers:        make(map[string]int64),
			FeatureCache:        make(map[string]float64),
			ConsecutiveFailures: make(map[string]int),
			DegradedFeatures:    make(map[string]bool),
		},
	}
}

// Snapshot returns a deep copy of the Engine's current RuntimeState,
// safe to persist and later feed to Restore.
func (e *Engine) Snapshot() *RuntimeState {
	return e.state.clone()
}

// Restore replaces the Engine's RuntimeState with a deep copy of s. The
// caller is responsible for ensuring ir/registry/broker/env match the run
// that produced s; Restore does not validate compatibility.
func (e *Engine) Restore(s *RuntimeState) {
	e.state = s.clone()
}

// Shutdown drains nothing synchronously (all broker calls in this
// implementation already complete before processBar returns) and marks
// the Engine unusable for further bars: ProcessBar on a shut-down Engine
// returns an empty BarOutcome without touching state.
func (e *Engine) Shutdown() {
	e.ir = nil
}

// ProcessBar runs the ten-step bar processing algorithm against b and
// returns the resulting BarOutcome. It never panics: evaluator and
// broker failures are captured as log entries.
func (e *Engine) ProcessBar(ctx context.Context, b bar.Bar) BarOutcome {
	var logs []RuntimeLog

	if e.ir == nil {
		return BarOutcome{}
	}

	// Step 1: monotonicity.
	if b.Timestamp <= e.state.LastBarTimestamp {
		logs = append(logs, RuntimeLog{Timestamp: b.Timestamp, Kind: LogOutOfOrderBar, Message: fmt.Sprintf("bar timestamp %d does not exceed last processed %d", b.Timestamp, e.state.LastBarTimestamp)})
		e.state.appendLogs(logs, e.cfg.LogCapacity)
		return BarOutcome{Logs: e.state.Log[len(e.state.Log)-len(logs):]}
	}

	// Step 2: append to bounded history ring (current bar is appended
	// after feature evaluation, below, so History reflects "prior bars").
	history := e.state.History

	// Step 3 + 4: populate built-ins, then evaluate the feature plan.
	values := make(map[string]float64, len(e.ir.FeaturePlan)+4)
	failures := features.Evaluate(e.registry, e.ir.FeaturePlan, b, history, values)
	for _, f := range failures {
		logs = append(logs, RuntimeLog{Timestamp: b.Timestamp, Kind: LogFeatureError, Message: fmt.Sprintf("feature %q: %v", f.Name, f.Err)})
		e.state.ConsecutiveFailures[f.Name]++
		if e.state.ConsecutiveFailures[f.Name] >= degradedFeatureThreshold && !e.state.DegradedFeatures[f.Name] {
			e.state.DegradedFeatures[f.Name] = true
			logs = append(logs, RuntimeLog{Timestamp: b.Timestamp, Kind: LogDegradedFeature, Message: fmt.Sprintf("feature %q degraded after %d consecutive failures", f.Name, e.state.ConsecutiveFailures[f.Name])})
		}
	}
	failedNames := make(map[string]bool, len(failures))
	for _, f := range failures {
		failedNames[f.Name] = true
	}
	for _, name := range e.ir.FeaturePlan {
		if !failedNames[name] {
			e.state.ConsecutiveFailures[name] = 0
		}
	}

	// Step 5: fire due timers, injecting a synthetic boolean feature per
	// firing. Expired timers are removed from ActiveTimers.
	for name, fireAt := range e.state.ActiveTimers {
		if fireAt <= b.Timestamp {
			values[timerFeatureName(name)] = 1
			delete(e.state.ActiveTimers, name)
			logs = append(logs, RuntimeLog{Timestamp: b.Timestamp, Kind: LogTimerExpired, Message: fmt.Sprintf("timer %q expired", name)})
		}
	}

	// Step 6: first-true-guard-wins over the outbound transitions of the
	// current state, in declaration order.
	var fired *ir.Transition
	for i := range e.ir.Transitions[e.state.CurrentState] {
		t := &e.ir.Transitions[e.state.CurrentState][i]
		v, err := evalGuard(t, values, e.ir.FeatureTypes)
		if err != nil {
			logs = append(logs, RuntimeLog{Timestamp: b.Timestamp, Kind: LogFeatureError, Message: fmt.Sprintf("guard %s->%s: %v", t.From, t.To, err)})
			continue
		}
		if v {
			fired = t
			break
		}
	}

	var outcome BarOutcome
	outcome.FeatureValues = values

	// Step 7/8: apply the firing transition's actions in declared order.
	// No guard true => no-op; a default loopback action (e.g. trailing-stop
	// maintenance while MANAGING) is left for a future revision.
	if fired != nil {
		logs = append(logs, RuntimeLog{Timestamp: b.Timestamp, Kind: LogTransitionFired, Message: fmt.Sprintf("%s -> %s", fired.From, fired.To)})
		for _, action := range fired.Actions {
			actionLogs := e.applyAction(ctx, b, action)
			logs = append(logs, actionLogs...)
		}
		outcome.TransitionFired = &TransitionRef{From: fired.From, To: fired.To}
		outcome.ActionsEmitted = fired.Actions
		e.state.CurrentState = fired.To
	}

	// Step 9: update timestamp, roll the bounded history ring, clear the
	// per-bar feature cache (values belongs to the caller via outcome).
	e.state.LastBarTimestamp = b.Timestamp
	e.state.History = append(e.state.History, b)
	if len(e.state.History) > e.cfg.HistoryCapacity {
		e.state.History = e.state.History[len(e.state.History)-e.cfg.HistoryCapacity:]
	}
	e.state.FeatureCache = map[string]float64{}

	e.state.appendLogs(logs, e.cfg.LogCapacity)
	outcome.Logs = e.state.Log[len(e.state.Log)-len(logs):]
	return outcome
}

// evalGuard evaluates t.When against values, typed by types (the
// compiled IR's feature type table, needed to tell a boolean-typed
// feature's 1.0/0.0 encoding apart from a genuine number at eval time).
// NaN-tainted comparisons already evaluate false inside expr.Eval, so a
// comparison on a failed feature is false rather than an error here (a
// negated comparison, such as !(x > 1), is then true);
// only a genuinely missing identifier (a compiler bug, per
// expr.EvalError) surfaces as an error.
func evalGuard(t *ir.Transition, values map[string]float64, types map[string]expr.Type) (bool, error) {
	v, err := expr.Eval(t.When, values, types)
	if err != nil {
		return false, err
	}
	return v.Bool, nil
}

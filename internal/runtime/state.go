package runtime

import (
	"github.com/google/uuid"

	"github.com/atlas-desktop/stratcore/internal/broker"
	"github.com/atlas-desktop/stratcore/pkg/bar"
	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// RuntimeLog is one entry in an Engine's decision log: a timer firing, a
// transition, a feature failure, a broker error, or an out-of-order bar
// drop. ID is a uuid assigned when the entry is appended to RuntimeState,
// giving every log line a stable identity across snapshot/restore.
type RuntimeLog struct {
	ID        string
	Timestamp int64
	Kind      string
	Message   string
}

const (
	LogOutOfOrderBar   = "OutOfOrderBar"
	LogFeatureError    = "FeatureError"
	LogDegradedFeature = "DegradedFeature"
	LogTransitionFired = "TransitionFired"
	LogTimerExpired    = "TimerExpired"
	LogBrokerError     = "BrokerError"
	LogSignalEmitted   = "EmitSignal"
)

// appendLogs assigns a fresh uuid to each of logs, appends them to s.Log
// in order, and rolls the ring so it never holds more than capacity
// entries (oldest dropped first), mirroring how ProcessBar caps History.
func (s *RuntimeState) appendLogs(logs []RuntimeLog, capacity int) {
	for _, l := range logs {
		l.ID = uuid.NewString()
		s.Log = append(s.Log, l)
	}
	if capacity > 0 && len(s.Log) > capacity {
		s.Log = s.Log[len(s.Log)-capacity:]
	}
}

// RuntimeState is everything an Engine owns for one running strategy.
// It is exclusively owned by its Engine; callers obtain a deep copy via
// Snapshot and may later feed it back via Restore.
type RuntimeState struct {
	CurrentState     ir.StrategyState
	OpenOrders       map[string][]broker.OrderHandle // by planId
	ActiveTimers     map[string]int64                // name -> fireAt (bar timestamp)
	LastBarTimestamp int64
	History          []bar.Bar
	FeatureCache     map[string]float64
	Log              []RuntimeLog

	// ConsecutiveFailures tracks, per feature name, how many bars in a row
	// its evaluator has failed; three trips DegradedFeatures[name] sticky.
	ConsecutiveFailures map[string]int
	DegradedFeatures    map[string]bool
}

// clone returns a deep copy of s, safe to hand to a caller or to persist.
func (s *RuntimeState) clone() *RuntimeState {
	out := &RuntimeState{
		CurrentState:        s.CurrentState,
		LastBarTimestamp:    s.LastBarTimestamp,
		OpenOrders:          make(map[string][]broker.OrderHandle, len(s.OpenOrders)),
		ActiveTimers:        make(map[string]int64, len(s.ActiveTimers)),
		History:             append([]bar.Bar(nil), s.History...),
		FeatureCache:        make(map[string]float64, len(s.FeatureCache)),
		Log:                 append([]RuntimeLog(nil), s.Log...),
		ConsecutiveFailures: make(map[string]int, len(s.ConsecutiveFailures)),
		DegradedFeatures:    make(map[string]bool, len(s.DegradedFeatures)),
	}
	for k, v := range s.OpenOrders {
		out.OpenOrders[k] = append([]broker.OrderHandle(nil), v...)
	}
	for k, v := range s.ActiveTimers {
		out.ActiveTimers[k] = v
	}
	for k, v := range s.FeatureCache {
		out.FeatureCache[k] = v
	}
	for k, v := range s.ConsecutiveFailures {
		out.ConsecutiveFailures[k] = v
	}
	for k, v := range s.DegradedFeatures {
		out.DegradedFeatures[k] = v
	}
	return out
}

package compiler

// Document is the raw, unvalidated shape of a strategy text input,
// authored as YAML. Every field the compiler consumes is declared here;
// `yaml:",inline"` is never used so that unknown top-level keys — which
// the schema stage must reject — show up in a strict decode.
type Document struct {
	Meta       DocMeta            `yaml:"meta"`
	Symbol     string             `yaml:"symbol"`
	Timeframe  string             `yaml:"timeframe"`
	Features   []DocFeature       `yaml:"features"`
	OrderPlans []DocOrderPlan     `yaml:"orderPlans"`
	States     []DocState         `yaml:"states"`
	Transitions []DocTransition   `yaml:"transitions"`
}

type DocMeta struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DocFeature declares an indicator/microstructure configuration. Type
// selects which features.New*Descriptor constructor builds the
// Descriptor; Params carries its numeric arguments (period, k, window,
// lookback, kPeriod, dPeriod) by name.
type DocFeature struct {
	Name   string             `yaml:"name"`
	Type   string             `yaml:"type"` // "indicator" | "microstructure"
	Kind   string             `yaml:"kind"` // sma | ema | rsi | macdLine | macdSignal | macdHist | bbUpper | bbMiddle | bbLower | atr | adx | stochK | stochD | cci | williamsR | obv | vwap | rangeHigh | rangeLow | rangeMid | smaRising | hi52w | lo52w | cupAndHandle
	Params map[string]float64 `yaml:"params"`
}

type DocPriceZone struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

type DocBracket struct {
	Price           float64 `yaml:"price"`
	RatioOfPosition float64 `yaml:"ratioOfPosition"`
}

type DocOrderPlan struct {
	ID                string        `yaml:"id"`
	Symbol            string        `yaml:"symbol"`
	Side              string        `yaml:"side"`
	Qty               int64         `yaml:"qty"`
	TargetEntryPrice  float64       `yaml:"targetEntryPrice"`
	EntryZone         *DocPriceZone `yaml:"entryZone"`
	StopPrice         float64       `yaml:"stopPrice"`
	Brackets          []DocBracket  `yaml:"brackets"`
	InvalidationLevel *float64      `yaml:"invalidationLevel"`
}

// DocState extends the canonical state set and optionally carries the
// invalidate_when / invalidate_when_any sugar lowered in compiler stage 4.
type DocState struct {
	Name             string   `yaml:"name"`
	InvalidateWhen   string   `yaml:"invalidate_when"`
	InvalidateWhenAny []string `yaml:"invalidate_when_any"`
}

type DocAction struct {
	Kind          string         `yaml:"kind"` // submitOrderPlan | cancelOpenEntries | closePosition | startTimer | cancelTimer | emitSignal
	PlanID        string         `yaml:"planId"`
	Reason        string         `yaml:"reason"`
	TimerName     string         `yaml:"timerName"`
	DurationMs    int64          `yaml:"durationMs"`
	SignalLabel   string         `yaml:"signalLabel"`
	SignalPayload map[string]any `yaml:"signalPayload"`
}

type DocTransition struct {
	From          string      `yaml:"from"`
	To            string      `yaml:"to"`
	When          string      `yaml:"when"`
	Actions       []DocAction `yaml:"actions"`
	AllowSelfLoop bool        `yaml:"allowSelfLoop"`
}

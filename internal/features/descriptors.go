package features

import "github.com/atlas-desktop/stratcore/internal/expr"

// The constructors below build Descriptors parameterised by period, for
// use by the compiler when a document declares a named indicator
// configuration (e.g. `{name: sma50, type: indicator, kind: sma, params:
// {period: 50}}`). registerIndicators additionally seeds every Registry
// with a set of conventional defaults so a document that omits the
// features section can still reference common names directly, per the
// registry-default fallback.

// NewSMADescriptor builds a Descriptor computing the simple moving
// average of close over period.
func NewSMADescriptor(name string, period int) Descriptor {
	return Descriptor{
		Name: name,
		Kind: KindIndicator,
		Type: expr.TypeNumber,
		Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { return SMA(closeSeries(c), period), nil },
	}
}

// NewEMADescriptor builds a Descriptor computing the exponential moving
// average of close over period.
func NewEMADescriptor(name string, period int) Descriptor {
	return Descriptor{
		Name: name,
		Kind: KindIndicator,
		Type: expr.TypeNumber,
		Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { return EMA(closeSeries(c), period), nil },
	}
}

// NewRSIDescriptor builds a Descriptor computing Wilder RSI over period.
func NewRSIDescriptor(name string, period int) Descriptor {
	return Descriptor{
		Name: name,
		Kind: KindIndicator,
		Type: expr.TypeNumber,
		Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { return RSI(closeSeries(c), period), nil },
	}
}

// NewMACDLineDescriptor, NewMACDSignalDescriptor and NewMACDHistDescriptor
// each independently recompute the full 12/26/9 MACD triple and project
// out one component; this keeps every Descriptor pure and
// side-effect-free at the cost of redundant work, acceptable given the
// bounded history window.
func NewMACDLineDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { v, _, _ := MACD(closeSeries(c)); return v, nil },
	}
}

func NewMACDSignalDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { _, v, _ := MACD(closeSeries(c)); return v, nil },
	}
}

func NewMACDHistDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { _, _, v := MACD(closeSeries(c)); return v, nil },
	}
}

// NewBollingerUpperDescriptor, NewBollingerMiddleDescriptor and
// NewBollingerLowerDescriptor each project one band of a period/k
// Bollinger configuration.
func NewBollingerUpperDescriptor(name string, period int, k float64) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { u, _, _ := BollingerBands(closeSeries(c), period, k); return u, nil },
	}
}

func NewBollingerMiddleDescriptor(name string, period int, k float64) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { _, m, _ := BollingerBands(closeSeries(c), period, k); return m, nil },
	}
}

func NewBollingerLowerDescriptor(name string, period int, k float64) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { _, _, l := BollingerBands(closeSeries(c), period, k); return l, nil },
	}
}

// NewATRDescriptor builds a Descriptor computing Wilder ATR over period.
func NewATRDescriptor(name string, period int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low", "close"},
		Eval: func(c Context) (float64, error) { return ATR(barSeries(c), period), nil },
	}
}

// NewADXDescriptor builds a Descriptor computing Wilder ADX over period.
func NewADXDescriptor(name string, period int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low", "close"},
		Eval: func(c Context) (float64, error) { return ADX(barSeries(c), period), nil },
	}
}

// NewStochasticKDescriptor and NewStochasticDDescriptor project the %K
// and %D lines of one kPeriod/dPeriod configuration.
func NewStochasticKDescriptor(name string, kPeriod, dPeriod int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low", "close"},
		Eval: func(c Context) (float64, error) { k, _ := Stochastic(barSeries(c), kPeriod, dPeriod); return k, nil },
	}
}

func NewStochasticDDescriptor(name string, kPeriod, dPeriod int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low", "close"},
		Eval: func(c Context) (float64, error) { _, d := Stochastic(barSeries(c), kPeriod, dPeriod); return d, nil },
	}
}

// NewCCIDescriptor builds a Descriptor computing CCI over period.
func NewCCIDescriptor(name string, period int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low", "close"},
		Eval: func(c Context) (float64, error) { return CCI(barSeries(c), period), nil },
	}
}

// NewWilliamsRDescriptor builds a Descriptor computing Williams %R over
// period.
func NewWilliamsRDescriptor(name string, period int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low", "close"},
		Eval: func(c Context) (float64, error) { return WilliamsR(barSeries(c), period), nil },
	}
}

// NewOBVDescriptor builds a Descriptor computing on-balance volume.
func NewOBVDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"close", "volume"},
		Eval: func(c Context) (float64, error) { return OBV(barSeries(c)), nil },
	}
}

// NewVWAPDescriptor builds a Descriptor computing the current trading
// day's volume-weighted average price.
func NewVWAPDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low", "close", "volume"},
		Eval: func(c Context) (float64, error) { return VWAP(c.History, c.Bar), nil },
	}
}

// NewRollingRangeHighDescriptor, NewRollingRangeLowDescriptor and
// NewRollingRangeMidDescriptor project one edge of a trailing-window
// range over high/low.
func NewRollingRangeHighDescriptor(name string, window int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low"},
		Eval: func(c Context) (float64, error) { h, _, _ := RollingRange(barSeries(c), window); return h, nil },
	}
}

func NewRollingRangeLowDescriptor(name string, window int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low"},
		Eval: func(c Context) (float64, error) { _, l, _ := RollingRange(barSeries(c), window); return l, nil },
	}
}

func NewRollingRangeMidDescriptor(name string, window int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low"},
		Eval: func(c Context) (float64, error) { _, _, m := RollingRange(barSeries(c), window); return m, nil },
	}
}

// NewSMARisingDescriptor builds a boolean Descriptor: true when the
// period-SMA of close has increased over the trailing lookback bars.
func NewSMARisingDescriptor(name string, period, lookback int) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeBoolean, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) {
			if SMARising(closeSeries(c), period, lookback) {
				return 1, nil
			}
			return 0, nil
		},
	}
}

// NewFiftyTwoWeekHighDescriptor and NewFiftyTwoWeekLowDescriptor project
// the trailing 252-bar high/low.
func NewFiftyTwoWeekHighDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low"},
		Eval: func(c Context) (float64, error) { h, _ := FiftyTwoWeekHighLow(barSeries(c)); return h, nil },
	}
}

func NewFiftyTwoWeekLowDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindIndicator, Type: expr.TypeNumber, Deps: []string{"high", "low"},
		Eval: func(c Context) (float64, error) { _, l := FiftyTwoWeekHighLow(barSeries(c)); return l, nil },
	}
}

// NewCupAndHandleDescriptor builds a Descriptor returning the
// cup-and-handle confidence score (0-100, see pattern.go thresholds).
func NewCupAndHandleDescriptor(name string) Descriptor {
	return Descriptor{
		Name: name, Kind: KindMicrostructure, Type: expr.TypeNumber, Deps: []string{"close"},
		Eval: func(c Context) (float64, error) { score, _ := CupAndHandle(closeSeries(c)); return score, nil },
	}
}

// registerIndicators seeds a fresh Registry with the conventional default
// names documents may reference without an explicit features section.
func registerIndicators(r *Registry) {
	r.Register(NewSMADescriptor("sma20", 20))
	r.Register(NewEMADescriptor("ema20", 20))
	r.Register(NewRSIDescriptor("rsi14", 14))
	r.Register(NewMACDLineDescriptor("macd"))
	r.Register(NewMACDSignalDescriptor("macdSignal"))
	r.Register(NewMACDHistDescriptor("macdHist"))
	r.Register(NewBollingerUpperDescriptor("bbUpper", 20, 2))
	r.Register(NewBollingerMiddleDescriptor("bbMiddle", 20, 2))
	r.Register(NewBollingerLowerDescriptor("bbLower", 20, 2))
	r.Register(NewATRDescriptor("atr14", 14))
	r.Register(NewADXDescriptor("adx14", 14))
	r.Register(NewStochasticKDescriptor("stochK", 14, 3))
	r.Register(NewStochasticDDescriptor("stochD", 14, 3))
	r.Register(NewCCIDescriptor("cci20", 20))
	r.Register(NewWilliamsRDescriptor("williamsR14", 14))
	r.Register(NewOBVDescriptor("obv"))
	r.Register(NewVWAPDescriptor("vwap"))
	r.Register(NewRollingRangeHighDescriptor("rangeHigh", 20))
	r.Register(NewRollingRangeLowDescriptor("rangeLow", 20))
	r.Register(NewRollingRangeMidDescriptor("rangeMid", 20))
	r.Register(NewSMARisingDescriptor("smaRising", 20, 20))
	r.Register(NewFiftyTwoWeekHighDescriptor("hi52w"))
	r.Register(NewFiftyTwoWeekLowDescriptor("lo52w"))
	r.Register(NewCupAndHandleDescriptor("cupAndHandle"))
}

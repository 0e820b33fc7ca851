package features

import (
	"math"

	"github.com/atlas-desktop/stratcore/pkg/bar"
)

// Every function below is a pure function of its inputs: no package-level
// state, no memoised series across calls. Series arguments are ordered
// oldest-first with the current bar's value last.

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func lastN(xs []float64, n int) []float64 {
	if n > len(xs) {
		n = len(xs)
	}
	return xs[len(xs)-n:]
}

// closeSeries concatenates a bar's prior History with Bar itself, oldest
// first, giving the chronological series most indicators operate on.
func closeSeries(c Context) []float64 {
	out := make([]float64, 0, len(c.History)+1)
	for _, h := range c.History {
		out = append(out, h.Close)
	}
	return append(out, c.Bar.Close)
}

func barSeries(c Context) []bar.Bar {
	out := make([]bar.Bar, 0, len(c.History)+1)
	out = append(out, c.History...)
	return append(out, c.Bar)
}

// SMA returns the simple moving average of the last period values in
// series, or the arithmetic mean of every available value if there are
// fewer than period.
func SMA(series []float64, period int) float64 {
	return mean(lastN(series, period))
}

// EMA returns the exponential moving average of series with the given
// period. If series has fewer than period values, it returns their
// arithmetic mean. Otherwise it seeds from SMA(series[:period]) and
// recurses forward to the last element.
func EMA(series []float64, period int) float64 {
	return emaSeries(series, period)[len(series)-1]
}

// emaSeries returns the EMA value at every index of series, each computed
// under the same insufficient-history rule as EMA itself. Used internally
// to build MACD's signal line, which is a true EMA of the MACD series.
func emaSeries(series []float64, period int) []float64 {
	n := len(series)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	k := 2.0 / (float64(period) + 1)
	for i := 0; i < n; i++ {
		switch {
		case i+1 < period:
			out[i] = mean(series[:i+1])
		case i+1 == period:
			out[i] = mean(series[:period])
		default:
			out[i] = series[i]*k + out[i-1]*(1-k)
		}
	}
	return out
}

// RSI returns the Wilder-smoothed relative strength index of series over
// period. Returns 50 when there are fewer than period+1 samples, or when
// both average gain and average loss are zero; returns 100 when average
// loss is zero but average gain is not.
func RSI(series []float64, period int) float64 {
	n := len(series)
	if n < period+1 {
		return 50
	}

	gains := make([]float64, n-1)
	losses := make([]float64, n-1)
	for i := 1; i < n; i++ {
		d := series[i] - series[i-1]
		if d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}

	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 && avgGain == 0 {
		return 50
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the 12/26/9 MACD line, signal line and histogram for
// series. The signal line is the true 9-period EMA of the MACD series,
// not an unweighted mean. Returns a zero triple while len(series) < 26.
func MACD(series []float64) (macd, signal, hist float64) {
	if len(series) < 26 {
		return 0, 0, 0
	}
	ema12 := emaSeries(series, 12)
	ema26 := emaSeries(series, 26)
	macdSeries := make([]float64, len(series))
	for i := range macdSeries {
		macdSeries[i] = ema12[i] - ema26[i]
	}
	signalSeries := emaSeries(macdSeries, 9)
	last := len(series) - 1
	macd = macdSeries[last]
	signal = signalSeries[last]
	hist = macd - signal
	return
}

// BollingerBands returns {upper, middle, lower} for the last period
// values of series with a k standard-deviation band, using population
// variance (divide by N, not N-1). While len(series) < period, all three
// equal the last (current) value.
func BollingerBands(series []float64, period int, k float64) (upper, middle, lower float64) {
	if len(series) < period {
		c := series[len(series)-1]
		return c, c, c
	}
	window := lastN(series, period)
	middle = mean(window)
	variance := 0.0
	for _, v := range window {
		d := v - middle
		variance += d * d
	}
	variance /= float64(period)
	stdDev := math.Sqrt(variance)
	upper = middle + k*stdDev
	lower = middle - k*stdDev
	return
}

func trueRange(bars []bar.Bar, i int) float64 {
	if i == 0 {
		return bars[0].High - bars[0].Low
	}
	prevClose := bars[i-1].Close
	hl := bars[i].High - bars[i].Low
	hc := math.Abs(bars[i].High - prevClose)
	lc := math.Abs(bars[i].Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

// ATR returns the Wilder-smoothed average true range over period,
// computed from bars. Returns 0 if fewer than 2 bars are available.
func ATR(bars []bar.Bar, period int) float64 {
	if len(bars) < 2 {
		return 0
	}
	trs := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs[i-1] = trueRange(bars, i)
	}
	if len(trs) < period {
		return mean(trs)
	}
	atr := mean(trs[:period])
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr
}

// ADX returns the Wilder-smoothed average directional index over period,
// computed from bars. Returns 0 for fewer than 2 bars.
func ADX(bars []bar.Bar, period int) float64 {
	n := len(bars)
	if n < 2 {
		return 0
	}

	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	trs := make([]float64, n-1)
	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
		trs[i-1] = trueRange(bars, i)
	}

	smoothedTR := wilderSmooth(trs, period)
	smoothedPlusDM := wilderSmooth(plusDM, period)
	smoothedMinusDM := wilderSmooth(minusDM, period)

	dx := make([]float64, len(smoothedTR))
	for i := range dx {
		if smoothedTR[i] == 0 {
			dx[i] = 0
			continue
		}
		plusDI := 100 * smoothedPlusDM[i] / smoothedTR[i]
		minusDI := 100 * smoothedMinusDM[i] / smoothedTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
	}

	return mean(lastN(dx, period))
}

// wilderSmooth applies Wilder's smoothing (seed = mean of first `period`
// values, then recursive (period-1)-weighted average) to every index of
// values, under the same insufficient-history rule used elsewhere.
func wilderSmooth(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		switch {
		case i+1 < period:
			out[i] = mean(values[:i+1])
		case i+1 == period:
			out[i] = mean(values[:period])
		default:
			out[i] = (out[i-1]*float64(period-1) + values[i]) / float64(period)
		}
	}
	return out
}

// Stochastic returns %K and %D over kPeriod/dPeriod, computed from bars.
// %K is 50 when the high/low range of the window is zero. %D is the SMA
// of the last dPeriod %K values, each computed over its own trailing
// kPeriod window.
func Stochastic(bars []bar.Bar, kPeriod, dPeriod int) (k, d float64) {
	n := len(bars)
	kSeries := make([]float64, 0, dPeriod)
	start := n - dPeriod
	if start < 0 {
		start = 0
	}
	for end := start; end < n; end++ {
		kSeries = append(kSeries, stochK(bars[:end+1], kPeriod))
	}
	k = kSeries[len(kSeries)-1]
	d = mean(kSeries)
	return
}

func stochK(bars []bar.Bar, period int) float64 {
	window := lastNBars(bars, period)
	hi, lo := highLow(window)
	if hi == lo {
		return 50
	}
	close := window[len(window)-1].Close
	return 100 * (close - lo) / (hi - lo)
}

func lastNBars(bars []bar.Bar, n int) []bar.Bar {
	if n > len(bars) {
		n = len(bars)
	}
	return bars[len(bars)-n:]
}

func highLow(bars []bar.Bar) (hi, lo float64) {
	hi = bars[0].High
	lo = bars[0].Low
	for _, b := range bars[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	return
}

// CCI returns the commodity channel index over period, computed from
// bars. Returns 0 if fewer than period bars are available.
func CCI(bars []bar.Bar, period int) float64 {
	window := lastNBars(bars, period)
	if len(window) < period {
		return 0
	}
	typical := make([]float64, len(window))
	for i, b := range window {
		typical[i] = (b.High + b.Low + b.Close) / 3
	}
	smaTypical := mean(typical)
	meanDev := 0.0
	for _, t := range typical {
		meanDev += math.Abs(t - smaTypical)
	}
	meanDev /= float64(len(typical))
	if meanDev == 0 {
		return 0
	}
	current := typical[len(typical)-1]
	return (current - smaTypical) / (0.015 * meanDev)
}

// WilliamsR returns Williams %R over period, in [-100, 0]. Returns -50
// (the range midpoint) when the window's high/low range is zero.
func WilliamsR(bars []bar.Bar, period int) float64 {
	window := lastNBars(bars, period)
	hi, lo := highLow(window)
	if hi == lo {
		return -50
	}
	close := window[len(window)-1].Close
	return -100 * (hi - close) / (hi - lo)
}

// OBV returns the on-balance volume closed form over bars:
// sum over i>=1 of sign(close_i - close_{i-1}) * volume_i.
func OBV(bars []bar.Bar) float64 {
	obv := 0.0
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Volume
		}
	}
	return obv
}

// VWAP returns the cumulative typical-price-weighted average price over
// bars, computed only over the trailing run of bars that share the same
// calendar day as current. If every such bar has zero volume, VWAP
// returns current.Close.
func VWAP(bars []bar.Bar, current bar.Bar) float64 {
	day := civilDay(current.Timestamp)

	currentTypical := (current.High + current.Low + current.Close) / 3
	sumPV := currentTypical * current.Volume
	sumV := current.Volume

	for i := len(bars) - 1; i >= 0; i-- {
		if civilDay(bars[i].Timestamp) != day {
			break
		}
		typical := (bars[i].High + bars[i].Low + bars[i].Close) / 3
		sumPV += typical * bars[i].Volume
		sumV += bars[i].Volume
	}

	if sumV == 0 {
		return current.Close
	}
	return sumPV / sumV
}

// civilDay maps a monotonic-millisecond timestamp to a UTC calendar-day
// number, the reset boundary VWAP uses.
func civilDay(timestampMs int64) int64 {
	const msPerDay = 24 * 60 * 60 * 1000
	return timestampMs / msPerDay
}

// RollingRange returns {high, low, mid} of the High/Low fields over the
// trailing window bars (current bar included).
func RollingRange(bars []bar.Bar, window int) (hi, lo, mid float64) {
	w := lastNBars(bars, window)
	hi, lo = highLow(w)
	mid = (hi + lo) / 2
	return
}

// SMARising reports whether the simple moving average (over period) has
// increased over the trailing lookback bars: SMA now is compared against
// the SMA computed as of lookback bars ago.
func SMARising(series []float64, period, lookback int) bool {
	n := len(series)
	if n <= lookback {
		return false
	}
	now := SMA(series, period)
	past := SMA(series[:n-lookback], period)
	return now > past
}

// FiftyTwoWeekHighLow returns the highest High and lowest Low over the
// trailing up-to-252 bars (current bar included).
func FiftyTwoWeekHighLow(bars []bar.Bar) (hi, lo float64) {
	return highLow(lastNBars(bars, 252))
}

package features

import (
	"math"
	"testing"

	"github.com/atlas-desktop/stratcore/pkg/bar"
)

func closesToBars(closes []float64) []bar.Bar {
	out := make([]bar.Bar, len(closes))
	for i, c := range closes {
		out[i] = bar.Bar{Timestamp: int64(i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return out
}

// Hand-traced with k=2/(5+1)=1/3: seed=mean(10..14)=12, then
// 15*k+12*(1-k)=13, 16*k+13*(1-k)=14, 17*k+14*(1-k)=15, 18*k+15*(1-k)=16,
// 19*k+16*(1-k)=17. EMA returns the value at the series' last close (19),
// so 17.0 is correct; 14.0 is the value three closes earlier, at close 16.
func TestEMABaseline(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	got := EMA(closes, 5)
	want := 17.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("EMA = %v, want %v", got, want)
	}
}

func TestRSIAllEqual(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	if got := RSI(closes, 14); got != 50 {
		t.Errorf("RSI(all-equal) = %v, want 50", got)
	}

	bars := closesToBars(closes)
	if got := ATR(bars, 14); got != 0 {
		t.Errorf("ATR(all-equal) = %v, want 0", got)
	}

	upper, middle, lower := BollingerBands(closes, 20, 2)
	if upper != 100 || middle != 100 || lower != 100 {
		t.Errorf("Bollinger(all-equal) = (%v, %v, %v), want all 100", upper, middle, lower)
	}
}

func TestOBVToy(t *testing.T) {
	bars := []bar.Bar{
		{Timestamp: 0, Close: 100, Volume: 1000},
		{Timestamp: 1, Close: 102, Volume: 2000},
		{Timestamp: 2, Close: 101, Volume: 1500},
		{Timestamp: 3, Close: 105, Volume: 3000},
	}
	got := OBV(bars)
	want := 0 + 2000.0 - 1500 + 3000
	if got != want {
		t.Errorf("OBV = %v, want %v", got, want)
	}
}

func TestRSIInsufficientHistory(t *testing.T) {
	closes := []float64{1, 2, 3}
	if got := RSI(closes, 14); got != 50 {
		t.Errorf("RSI(insufficient) = %v, want 50", got)
	}
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{10, 9, 11, 8, 12, 7, 13, 6, 14, 5, 15, 20, 2, 30, 1, 40}
	got := RSI(closes, 14)
	if got < 0 || got > 100 {
		t.Errorf("RSI = %v, want in [0, 100]", got)
	}
}

func TestMACDZeroBelowThreshold(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	macd, signal, hist := MACD(closes)
	if macd != 0 || signal != 0 || hist != 0 {
		t.Errorf("MACD(n<26) = (%v,%v,%v), want zero triple", macd, signal, hist)
	}
}

func TestStochasticBounded(t *testing.T) {
	bars := closesToBars([]float64{10, 12, 9, 14, 8, 16, 7, 18, 6, 20, 5, 22, 4, 24, 3, 26, 2, 28})
	k, d := Stochastic(bars, 14, 3)
	if k < 0 || k > 100 || d < 0 || d > 100 {
		t.Errorf("Stochastic = (%v,%v), want both in [0,100]", k, d)
	}
}

func TestStochasticZeroRange(t *testing.T) {
	bars := closesToBars([]float64{5, 5, 5, 5, 5})
	k, _ := Stochastic(bars, 14, 3)
	if k != 50 {
		t.Errorf("Stochastic(zero range) = %v, want 50", k)
	}
}

func TestWilliamsRBounded(t *testing.T) {
	bars := closesToBars([]float64{10, 12, 9, 14, 8, 16, 7, 18, 6, 20, 5, 22, 4, 24, 3, 26})
	got := WilliamsR(bars, 14)
	if got < -100 || got > 0 {
		t.Errorf("WilliamsR = %v, want in [-100,0]", got)
	}
}

func TestADXBounded(t *testing.T) {
	bars := make([]bar.Bar, 40)
	price := 100.0
	for i := range bars {
		price += 1
		bars[i] = bar.Bar{Timestamp: int64(i), Open: price - 1, High: price + 1, Low: price - 2, Close: price, Volume: 10}
	}
	got := ADX(bars, 14)
	if got < 0 || got > 100 {
		t.Errorf("ADX = %v, want in [0,100]", got)
	}
}

func TestVWAPIdentityOnZeroVolumeDay(t *testing.T) {
	const dayMs = 24 * 60 * 60 * 1000
	history := []bar.Bar{
		{Timestamp: dayMs + 1000, High: 10, Low: 9, Close: 9.5, Volume: 0},
		{Timestamp: dayMs + 2000, High: 10, Low: 9, Close: 9.7, Volume: 0},
	}
	current := bar.Bar{Timestamp: dayMs + 3000, High: 10, Low: 9, Close: 9.9, Volume: 0}

	got := VWAP(history, current)
	if got != current.Close {
		t.Errorf("VWAP(all-zero-volume day) = %v, want %v", got, current.Close)
	}
}

func TestVWAPResetsAcrossDays(t *testing.T) {
	const dayMs = 24 * 60 * 60 * 1000
	history := []bar.Bar{
		{Timestamp: 1000, High: 100, Low: 90, Close: 95, Volume: 1000}, // previous day
	}
	current := bar.Bar{Timestamp: dayMs + 1000, High: 20, Low: 10, Close: 15, Volume: 50}

	got := VWAP(history, current)
	want := (20 + 10 + 15) / 3.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("VWAP(new day) = %v, want %v (previous day excluded)", got, want)
	}
}

func TestCupAndHandleBelowMinSamples(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	score, detected := CupAndHandle(closes)
	if score != 0 || detected {
		t.Errorf("CupAndHandle(n<100) = (%v,%v), want (0,false)", score, detected)
	}
}

func TestCupAndHandleDetectsShape(t *testing.T) {
	closes := make([]float64, 0, 140)
	// Left peak at 100, descend to a cup bottom around 75 (25% depth),
	// climb back to ~100, then a shallow handle pullback to ~92 (~8%).
	for i := 0; i < 30; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 25; i++ {
		closes = append(closes, 100-float64(i))
	}
	for i := 0; i < 25; i++ {
		closes = append(closes, 75+float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 10; i++ {
		closes = append(closes, 100-float64(i)*0.8)
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 92+float64(i)*0.4)
	}

	score, _ := CupAndHandle(closes)
	if score < 0 || score > 100 {
		t.Errorf("CupAndHandle score out of range: %v", score)
	}
}

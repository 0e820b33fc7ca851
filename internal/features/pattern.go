package features

import "math"

// Cup-and-handle detector parameters. These thresholds are contract: wire
// format and downstream consumers depend on them being exactly these
// values.
const (
	cupMinSamples       = 100
	cupExtremumWindow   = 10
	cupMinDepthPct      = 0.15
	cupMaxDepthPct      = 0.50
	cupMinWidth         = 20
	cupMaxPeakDiffPct   = 0.15
	handleMinDepthPct   = 0.05
	handleMaxDepthPct   = 0.15
	cupDetectThreshold  = 70.0
)

// CupAndHandle scores closes (oldest first, current last) for a
// cup-and-handle pattern, returning a confidence in [0, 100] and whether
// it clears the detection threshold. Fewer than 100 samples always
// yields (0, false).
func CupAndHandle(closes []float64) (confidence float64, detected bool) {
	n := len(closes)
	if n < cupMinSamples {
		return 0, false
	}

	maxima, minima := localExtrema(closes, cupExtremumWindow)
	if len(maxima) < 2 || len(minima) < 1 {
		return 0, false
	}

	rightPeakIdx, ok := lastIndexBefore(maxima, n)
	if !ok {
		return 0, false
	}
	bottomIdx, ok := lastMinimumBefore(minima, rightPeakIdx)
	if !ok {
		return 0, false
	}
	leftPeakIdx, ok := lastIndexBefore(maxima, bottomIdx)
	if !ok {
		return 0, false
	}

	leftPeak := closes[leftPeakIdx]
	bottom := closes[bottomIdx]
	rightPeak := closes[rightPeakIdx]

	if leftPeak <= 0 || rightPeak <= 0 {
		return 0, false
	}

	width := rightPeakIdx - leftPeakIdx
	if width < cupMinWidth {
		return 0, false
	}

	depthPct := (leftPeak - bottom) / leftPeak
	if depthPct < cupMinDepthPct || depthPct > cupMaxDepthPct {
		return 0, false
	}

	peakDiffPct := math.Abs(leftPeak-rightPeak) / leftPeak
	if peakDiffPct > cupMaxPeakDiffPct {
		return 0, false
	}

	validHandle := hasValidHandle(closes, minima, rightPeakIdx, rightPeak)

	score := 100 - math.Abs(depthPct*100-25) - math.Abs(peakDiffPct*100-5)
	if validHandle {
		score += 20
	}
	score = clip(score, 0, 100)

	return score, score >= cupDetectThreshold
}

// hasValidHandle looks for a local minimum after rightPeakIdx whose
// pullback from rightPeak is within [5%, 15%].
func hasValidHandle(closes []float64, minima []int, rightPeakIdx int, rightPeak float64) bool {
	for _, idx := range minima {
		if idx <= rightPeakIdx {
			continue
		}
		depth := (rightPeak - closes[idx]) / rightPeak
		if depth >= handleMinDepthPct && depth <= handleMaxDepthPct {
			return true
		}
	}
	return false
}

// localExtrema returns the indices of every local maximum and local
// minimum in series under a +/-window neighbourhood (clipped at the
// series bounds).
func localExtrema(series []float64, window int) (maxima, minima []int) {
	n := len(series)
	for i := 0; i < n; i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window
		if hi >= n {
			hi = n - 1
		}
		isMax, isMin := true, true
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			if series[j] > series[i] {
				isMax = false
			}
			if series[j] < series[i] {
				isMin = false
			}
		}
		if isMax {
			maxima = append(maxima, i)
		}
		if isMin {
			minima = append(minima, i)
		}
	}
	return
}

func lastIndexBefore(indices []int, bound int) (int, bool) {
	best := -1
	for _, idx := range indices {
		if idx < bound && idx > best {
			best = idx
		}
	}
	return best, best >= 0
}

func lastMinimumBefore(minima []int, bound int) (int, bool) {
	return lastIndexBefore(minima, bound)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// zScores maps supported confidence levels to two-sided normal quantiles.
var zScores = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// DefaultConfidence is used for any level missing from the z-score table.
const DefaultConfidence = 0.95

// Interval is a normal-approximation confidence interval for the mean.
type Interval struct {
	Mean       float64 `json:"mean"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Margin     float64 `json:"margin"`
	Confidence float64 `json:"confidence"` // level actually applied
}

// ConfidenceInterval returns mean ± z*sd/sqrt(n). Only 0.90, 0.95 and 0.99
// have z-scores; any other requested level is computed at 0.95 and the
// returned Interval.Confidence says so. Zero interval for empty input.
func ConfidenceInterval(data []float64, confidence float64) Interval {
	z, ok := zScores[confidence]
	if !ok {
		confidence = DefaultConfidence
		z = zScores[DefaultConfidence]
	}
	if len(data) == 0 {
		return Interval{Confidence: confidence}
	}

	m := Mean(data)
	margin := z * StandardDeviation(data, true) / math.Sqrt(float64(len(data)))
	return Interval{
		Mean:       m,
		Lower:      m - margin,
		Upper:      m + margin,
		Margin:     margin,
		Confidence: confidence,
	}
}

// Bin is one histogram bucket covering [Start, End).
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram splits [min, max] into equal-width bins. The maximum lands in
// the last bin. Constant data falls entirely into the first bin. Returns
// nil for empty input or bins <= 0.
func Histogram(data []float64, bins int) []Bin {
	if len(data) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := Min(data), Max(data)

	out := make([]Bin, bins)
	if hi == lo {
		for i := range out {
			out[i].Start, out[i].End = lo, hi
		}
		out[0].Count = len(data)
		return out
	}

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram bins are half-open; nudge the top edge so max counts.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	for i := range out {
		out[i].Start = dividers[i]
		out[i].End = dividers[i+1]
		out[i].Count = int(counts[i])
	}
	out[bins-1].End = hi
	return out
}

// ExponentialMovingAverage seeds with data[0] and applies
// ema[i] = alpha*data[i] + (1-alpha)*ema[i-1].
func ExponentialMovingAverage(data []float64, alpha float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	out := make([]float64, len(data))
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = alpha*data[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MovingAverage returns the trailing simple moving average; element i of the
// result averages data[i : i+window]. Nil when window is out of range.
func MovingAverage(data []float64, window int) []float64 {
	if window <= 0 || window > len(data) {
		return nil
	}
	out := make([]float64, 0, len(data)-window+1)
	var sum float64
	for i, v := range data {
		sum += v
		if i >= window {
			sum -= data[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// CumulativeSum returns running totals.
func CumulativeSum(data []float64) []float64 {
	return floats.CumSum(make([]float64, len(data)), data)
}

// PercentageChange returns the step-to-step change in percent, one element
// shorter than data. A zero predecessor yields 0 for that step.
func PercentageChange(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	out := make([]float64, len(data)-1)
	for i := 1; i < len(data); i++ {
		if data[i-1] == 0 {
			continue
		}
		out[i-1] = (data[i] - data[i-1]) / data[i-1] * 100
	}
	return out
}

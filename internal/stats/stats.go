// Package stats provides descriptive statistics for dashboard series.
//
// Every function here is total: empty input, a single sample, or zero
// variance degrade to a documented sentinel (usually 0) instead of an error
// so that a summary card can always render. Percentile is the one exception;
// an out-of-range percentile is a programming error and is reported.
package stats

import (
	"math"
	"sort"

	mfstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

// Quartiles holds the 25th, 50th and 75th percentiles.
type Quartiles struct {
	Q1 float64 `json:"q1"`
	Q2 float64 `json:"q2"`
	Q3 float64 `json:"q3"`
}

// Summary is the descriptive block shown next to each chart.
type Summary struct {
	Count    int       `json:"count"`
	Mean     float64   `json:"mean"`
	Median   float64   `json:"median"`
	Mode     float64   `json:"mode"`
	StdDev   float64   `json:"std_dev"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Range    float64   `json:"range"`
	Quart    Quartiles `json:"quartiles"`
	IQR      float64   `json:"iqr"`
	Skewness float64   `json:"skewness"`
	Kurtosis float64   `json:"kurtosis"`
	CV       float64   `json:"cv"`
}

// Sum returns the sum of data, 0 for empty input.
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Sum(data)
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(data []float64) float64 {
	m, err := mfstats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

// Median returns the middle value (mean of the two middle values for even
// lengths), 0 for empty input.
func Median(data []float64) float64 {
	m, err := mfstats.Median(data)
	if err != nil {
		return 0
	}
	return m
}

// Mode returns the most frequent value. When several values share the
// highest count, the one that reached it first while scanning wins.
// Returns 0 for empty input.
func Mode(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	counts := make(map[float64]int, len(data))
	mode, best := data[0], 0
	for _, v := range data {
		counts[v]++
		if counts[v] > best {
			best = counts[v]
			mode = v
		}
	}
	return mode
}

// Min returns the smallest value, 0 for empty input.
func Min(data []float64) float64 {
	m, err := mfstats.Min(data)
	if err != nil {
		return 0
	}
	return m
}

// Max returns the largest value, 0 for empty input.
func Max(data []float64) float64 {
	m, err := mfstats.Max(data)
	if err != nil {
		return 0
	}
	return m
}

// Range returns Max - Min.
func Range(data []float64) float64 {
	return Max(data) - Min(data)
}

// Variance returns the sample (n-1) or population (n) variance. Returns 0
// for empty input and for a single value in sample mode.
func Variance(data []float64, sample bool) float64 {
	n := len(data)
	if n == 0 || (sample && n < 2) {
		return 0
	}
	var v float64
	if sample {
		v = stat.Variance(data, nil)
	} else {
		v = stat.PopVariance(data, nil)
	}
	// Rounding can leave a tiny negative residue for constant input.
	if v < 0 || isConstant(data) {
		return 0
	}
	return v
}

// StandardDeviation returns the square root of Variance.
func StandardDeviation(data []float64, sample bool) float64 {
	return math.Sqrt(Variance(data, sample))
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between the closest ranks of the sorted data, rank = p/100*(n-1). Returns
// 0 for empty input.
func Percentile(data []float64, p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, common.InvalidArgument("percentile %v outside [0,100]", p)
	}
	if len(data) == 0 {
		return 0, nil
	}
	sorted := sortedCopy(data)
	return percentileSorted(sorted, p), nil
}

func percentileSorted(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// QuartilesOf returns Q1, Q2 and Q3. Zero value for empty input.
func QuartilesOf(data []float64) Quartiles {
	if len(data) == 0 {
		return Quartiles{}
	}
	sorted := sortedCopy(data)
	return Quartiles{
		Q1: percentileSorted(sorted, 25),
		Q2: percentileSorted(sorted, 50),
		Q3: percentileSorted(sorted, 75),
	}
}

// IQR returns the interquartile range Q3 - Q1.
func IQR(data []float64) float64 {
	q := QuartilesOf(data)
	return q.Q3 - q.Q1
}

// DetectOutliers returns, in ascending order, the indices of values outside
// [Q1 - k*IQR, Q3 + k*IQR]. The customary k is 1.5.
func DetectOutliers(data []float64, k float64) []int {
	if len(data) == 0 {
		return nil
	}
	q := QuartilesOf(data)
	iqr := q.Q3 - q.Q1
	lo, hi := q.Q1-k*iqr, q.Q3+k*iqr

	var out []int
	for i, v := range data {
		if v < lo || v > hi {
			out = append(out, i)
		}
	}
	return out
}

// Skewness returns the bias-corrected sample skewness
// n/((n-1)(n-2)) * sum(((x-mean)/sd)^3). Returns 0 for n < 3 or sd = 0.
func Skewness(data []float64) float64 {
	if len(data) < 3 || StandardDeviation(data, true) == 0 {
		return 0
	}
	return stat.Skew(data, nil)
}

// Kurtosis returns the bias-corrected sample excess kurtosis. Returns 0 for
// n < 4 or sd = 0.
func Kurtosis(data []float64) float64 {
	if len(data) < 4 || StandardDeviation(data, true) == 0 {
		return 0
	}
	return stat.ExKurtosis(data, nil)
}

// CoefficientOfVariation returns sd/mean*100 using the sample deviation.
// Returns 0 when the mean is 0.
func CoefficientOfVariation(data []float64) float64 {
	m := Mean(data)
	if m == 0 {
		return 0
	}
	return StandardDeviation(data, true) / m * 100
}

// ZScores standardizes data with the sample deviation. All zeros when the
// deviation is 0.
func ZScores(data []float64) []float64 {
	out := make([]float64, len(data))
	sd := StandardDeviation(data, true)
	if sd == 0 {
		return out
	}
	m := Mean(data)
	for i, v := range data {
		out[i] = (v - m) / sd
	}
	return out
}

// Describe computes the full Summary for data.
func Describe(data []float64) Summary {
	q := QuartilesOf(data)
	return Summary{
		Count:    len(data),
		Mean:     Mean(data),
		Median:   Median(data),
		Mode:     Mode(data),
		StdDev:   StandardDeviation(data, true),
		Min:      Min(data),
		Max:      Max(data),
		Range:    Range(data),
		Quart:    q,
		IQR:      q.Q3 - q.Q1,
		Skewness: Skewness(data),
		Kurtosis: Kurtosis(data),
		CV:       CoefficientOfVariation(data),
	}
}

func sortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

func isConstant(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}

// Package correlation implements the correlation and regression engine used to
// compare the tidal index against solar and geomagnetic series.
//
// Unlike internal/stats, functions here fail fast: unequal or empty inputs
// return an error wrapping common.ErrInvalidArgument, because a number
// computed from misaligned series would be silently wrong.
package correlation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/stats"
)

// Method selects the correlation coefficient.
type Method string

const (
	MethodPearson  Method = "pearson"
	MethodSpearman Method = "spearman"
)

// Result is a correlation coefficient with its interpretation.
type Result struct {
	Method       Method  `json:"method"`
	Coefficient  float64 `json:"coefficient"`
	SampleSize   int     `json:"sample_size"`
	PValue       float64 `json:"p_value"`
	Strength     string  `json:"strength"`
	Significance string  `json:"significance"`
}

func checkPair(x, y []float64) error {
	if len(x) == 0 || len(y) == 0 {
		return common.InvalidArgument("empty series (len x=%d, len y=%d)", len(x), len(y))
	}
	if len(x) != len(y) {
		return common.InvalidArgument("series length mismatch: %d != %d", len(x), len(y))
	}
	return nil
}

// Pearson returns the Pearson product-moment correlation of x and y.
// When either series has zero variance the coefficient is undefined and 0
// is returned.
func Pearson(x, y []float64) (float64, error) {
	if err := checkPair(x, y); err != nil {
		return 0, err
	}
	return pearson(x, y), nil
}

func pearson(x, y []float64) float64 {
	if stats.Variance(x, false) == 0 || stats.Variance(y, false) == 0 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	// Guard rounding just outside [-1, 1].
	return math.Max(-1, math.Min(1, r))
}

// Spearman returns the rank correlation of x and y. Ranks come from a stable
// sort, so tied values receive consecutive ranks in input order rather than
// their average rank.
func Spearman(x, y []float64) (float64, error) {
	if err := checkPair(x, y); err != nil {
		return 0, err
	}
	return pearson(Ranks(x), Ranks(y)), nil
}

// Ranks returns 1-based ranks of data. Ties keep input order.
func Ranks(data []float64) []float64 {
	idx := make([]int, len(data))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return data[idx[a]] < data[idx[b]]
	})
	ranks := make([]float64, len(data))
	for rank, i := range idx {
		ranks[i] = float64(rank + 1)
	}
	return ranks
}

// Correlate computes the requested coefficient together with its p-value and
// labels.
func Correlate(x, y []float64, method Method) (Result, error) {
	var (
		r   float64
		err error
	)
	switch method {
	case MethodPearson, "":
		method = MethodPearson
		r, err = Pearson(x, y)
	case MethodSpearman:
		r, err = Spearman(x, y)
	default:
		return Result{}, common.InvalidArgument("unknown correlation method %q", method)
	}
	if err != nil {
		return Result{}, err
	}

	p := CorrelationPValue(r, len(x))
	return Result{
		Method:       method,
		Coefficient:  r,
		SampleSize:   len(x),
		PValue:       p,
		Strength:     Strength(r),
		Significance: Significance(p),
	}, nil
}

// Strength labels |r|.
func Strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.8:
		return "very strong"
	case a >= 0.6:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.2:
		return "weak"
	default:
		return "very weak"
	}
}

// Autocorrelation returns the autocorrelation for lags 0..maxLag. Each lag-k
// sum over the overlapping part of the series is divided by the lag-0 sum of
// squares of the whole series, so values shrink with lag as the overlap
// shortens. maxLag is clamped to len(data)-1. A constant series yields all
// zeros.
func Autocorrelation(data []float64, maxLag int) ([]float64, error) {
	if len(data) == 0 {
		return nil, common.InvalidArgument("empty series")
	}
	if maxLag < 0 {
		return nil, common.InvalidArgument("negative max lag %d", maxLag)
	}
	n := len(data)
	if maxLag > n-1 {
		maxLag = n - 1
	}

	m := stats.Mean(data)
	var c0 float64
	for _, v := range data {
		c0 += (v - m) * (v - m)
	}

	out := make([]float64, maxLag+1)
	if c0 == 0 {
		return out, nil
	}
	for k := 0; k <= maxLag; k++ {
		var ck float64
		for i := k; i < n; i++ {
			ck += (data[i] - m) * (data[i-k] - m)
		}
		out[k] = ck / c0
	}
	return out, nil
}

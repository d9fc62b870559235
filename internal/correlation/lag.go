package correlation

import (
	"math"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

// LagResult is the correlation of x against y shifted by Lag samples.
type LagResult struct {
	Lag         int     `json:"lag"`
	Coefficient float64 `json:"coefficient"`
	PairCount   int     `json:"pair_count"`
}

// CrossCorrelation sweeps lag over [-maxLag, maxLag] and correlates x[i] with
// y[i+lag]. A positive lag therefore means y follows x. Pairs that fall off
// either end of y, or that contain NaN, are excluded pairwise. Lags left with
// no pairs are omitted from the result rather than reported as 0.
func CrossCorrelation(x, y []float64, maxLag int) ([]LagResult, error) {
	if err := checkPair(x, y); err != nil {
		return nil, err
	}
	if maxLag < 0 {
		return nil, common.InvalidArgument("negative max lag %d", maxLag)
	}

	n := len(x)
	results := make([]LagResult, 0, 2*maxLag+1)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)

	for lag := -maxLag; lag <= maxLag; lag++ {
		xs, ys = xs[:0], ys[:0]
		for i := 0; i < n; i++ {
			j := i + lag
			if j < 0 || j >= n {
				continue
			}
			if math.IsNaN(x[i]) || math.IsNaN(y[j]) {
				continue
			}
			xs = append(xs, x[i])
			ys = append(ys, y[j])
		}
		if len(xs) == 0 {
			continue
		}
		results = append(results, LagResult{
			Lag:         lag,
			Coefficient: pearson(xs, ys),
			PairCount:   len(xs),
		})
	}
	return results, nil
}

// OptimalLag returns the result with the largest |coefficient|. On ties the
// earliest result in input order wins. ok is false for empty input.
func OptimalLag(results []LagResult) (best LagResult, ok bool) {
	for i, r := range results {
		if i == 0 || math.Abs(r.Coefficient) > math.Abs(best.Coefficient) {
			best = r
		}
	}
	return best, len(results) > 0
}

package correlation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/stats"
)

// Regression is an ordinary least squares fit y = Intercept + Slope*x.
type Regression struct {
	Slope        float64   `json:"slope"`
	Intercept    float64   `json:"intercept"`
	RSquared     float64   `json:"r_squared"`
	FittedValues []float64 `json:"fitted_values"`
	Residuals    []float64 `json:"residuals"`
}

// Predict evaluates the fitted line at x.
func (r Regression) Predict(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// LinearRegression fits y on x by least squares. R² is 1 - SSres/SStot over
// the same y; when y is constant SStot is 0 and R² is reported as 0. A
// constant x has no defined slope and is rejected.
func LinearRegression(x, y []float64) (Regression, error) {
	if err := checkPair(x, y); err != nil {
		return Regression{}, err
	}
	if stats.Variance(x, false) == 0 {
		return Regression{}, common.InvalidArgument("x has zero variance")
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	my := stats.Mean(y)
	fitted := make([]float64, len(x))
	residuals := make([]float64, len(x))
	var ssRes, ssTot float64
	for i := range x {
		fitted[i] = intercept + slope*x[i]
		residuals[i] = y[i] - fitted[i]
		ssRes += residuals[i] * residuals[i]
		ssTot += (y[i] - my) * (y[i] - my)
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	return Regression{
		Slope:        slope,
		Intercept:    intercept,
		RSquared:     r2,
		FittedValues: fitted,
		Residuals:    residuals,
	}, nil
}

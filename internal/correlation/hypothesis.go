package correlation

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/stats"
)

// P-values below are indicative. They follow the usual closed forms (normal
// approximation to the binomial, chi-square and Student t tails) and are
// meant to rank dashboard findings, not to be quoted in a paper.

const (
	HighlySignificant = "highly significant"
	Significant       = "significant"
	NotSignificant    = "not significant"
)

// Significance labels a p-value: p < 0.01 highly significant, p < 0.05
// significant.
func Significance(p float64) string {
	switch {
	case p < 0.01:
		return HighlySignificant
	case p < 0.05:
		return Significant
	default:
		return NotSignificant
	}
}

// TestResult is the outcome of a hypothesis test.
type TestResult struct {
	Statistic        float64 `json:"statistic"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom,omitempty"`
	PValue           float64 `json:"p_value"`
	Significance     string  `json:"significance"`
}

func newTestResult(statistic, df, p float64) TestResult {
	p = math.Max(0, math.Min(1, p))
	return TestResult{
		Statistic:        statistic,
		DegreesOfFreedom: df,
		PValue:           p,
		Significance:     Significance(p),
	}
}

// BinomialTest checks successes out of trials against the expected rate p0
// with the normal approximation, two-tailed. Statistic is the z-score.
func BinomialTest(successes, trials int, p0 float64) (TestResult, error) {
	if trials <= 0 {
		return TestResult{}, common.InvalidArgument("trials must be positive, got %d", trials)
	}
	if successes < 0 || successes > trials {
		return TestResult{}, common.InvalidArgument("successes %d outside [0,%d]", successes, trials)
	}
	if math.IsNaN(p0) || p0 <= 0 || p0 >= 1 {
		return TestResult{}, common.InvalidArgument("expected rate %v outside (0,1)", p0)
	}

	n := float64(trials)
	z := (float64(successes) - n*p0) / math.Sqrt(n*p0*(1-p0))
	return newTestResult(z, 0, twoTailedNormal(z)), nil
}

// ChiSquareTest computes the goodness-of-fit statistic sum((o-e)²/e) with
// k-1 degrees of freedom.
func ChiSquareTest(observed, expected []float64) (TestResult, error) {
	if err := checkPair(observed, expected); err != nil {
		return TestResult{}, err
	}
	if len(observed) < 2 {
		return TestResult{}, common.InvalidArgument("need at least two categories")
	}

	var chi2 float64
	for i := range observed {
		e := expected[i]
		if e <= 0 || math.IsNaN(e) {
			return TestResult{}, common.InvalidArgument("expected count %v at %d must be positive", e, i)
		}
		d := observed[i] - e
		chi2 += d * d / e
	}

	df := float64(len(observed) - 1)
	p := distuv.ChiSquared{K: df}.Survival(chi2)
	return newTestResult(chi2, df, p), nil
}

// CorrelationPValue returns the two-tailed p-value of a correlation r over
// n pairs using t = r*sqrt((n-2)/(1-r²)) with n-2 degrees of freedom.
// Fewer than three pairs carry no evidence and yield 1.
func CorrelationPValue(r float64, n int) float64 {
	if n < 3 || math.IsNaN(r) {
		return 1
	}
	r2 := r * r
	if r2 >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r2))
	return twoTailedT(t, df)
}

// TTest is a one-sample t-test of mean(data) against mu0. A sample with zero
// spread gives p = 0 when its mean differs from mu0 and p = 1 otherwise.
func TTest(data []float64, mu0 float64) (TestResult, error) {
	if len(data) < 2 {
		return TestResult{}, common.InvalidArgument("t-test needs at least two samples, got %d", len(data))
	}

	n := float64(len(data))
	df := n - 1
	m := stats.Mean(data)
	se := stats.StandardDeviation(data, true) / math.Sqrt(n)

	if se == 0 {
		if m == mu0 {
			return newTestResult(0, df, 1), nil
		}
		return newTestResult(math.Copysign(math.Inf(1), m-mu0), df, 0), nil
	}

	t := (m - mu0) / se
	return newTestResult(t, df, twoTailedT(t, df)), nil
}

func twoTailedNormal(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

func twoTailedT(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}

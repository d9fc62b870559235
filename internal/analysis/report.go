package analysis

import (
	"github.com/go-faster/errors"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/correlation"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/stats"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

// Options tunes CorrelateFTRTWithSolar.
type Options struct {
	WindowDays int // solar averaging window, DefaultWindowDays when 0
	MaxLag     int // cross-correlation sweep in samples, 0 disables
}

// Report is the FTRT versus solar comparison shown on the dashboard.
type Report struct {
	WindowDays  int                     `json:"window_days"`
	Pairs       int                     `json:"pairs"`
	Coefficient float64                 `json:"coefficient"`
	PValue      float64                 `json:"p_value"`
	Pearson     correlation.Result      `json:"pearson"`
	Spearman    correlation.Result      `json:"spearman"`
	Lags        []correlation.LagResult `json:"lags,omitempty"`
	BestLag     *correlation.LagResult  `json:"best_lag,omitempty"`
	Regression  *correlation.Regression `json:"regression,omitempty"`
	FTRT        stats.Summary           `json:"ftrt"`
	Solar       stats.Summary           `json:"solar"`
}

// CorrelateFTRTWithSolar aligns the series by window and correlates them.
// Coefficient and PValue repeat the Pearson result.
func CorrelateFTRTWithSolar(ftrt []tidal.Snapshot, series solar.Series, opts Options) (Report, error) {
	if opts.WindowDays == 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.MaxLag < 0 {
		return Report{}, common.InvalidArgument("negative max lag %d", opts.MaxLag)
	}

	pairs, err := AlignByWindow(ftrt, series, opts.WindowDays)
	if err != nil {
		return Report{}, err
	}
	if len(pairs) == 0 {
		return Report{}, common.InvalidArgument("no solar data inside any %d-day FTRT window", opts.WindowDays)
	}

	x, y := Columns(pairs)
	rep := Report{
		WindowDays: opts.WindowDays,
		Pairs:      len(pairs),
		FTRT:       stats.Describe(x),
		Solar:      stats.Describe(y),
	}

	if rep.Pearson, err = correlation.Correlate(x, y, correlation.MethodPearson); err != nil {
		return Report{}, err
	}
	if rep.Spearman, err = correlation.Correlate(x, y, correlation.MethodSpearman); err != nil {
		return Report{}, err
	}
	rep.Coefficient = rep.Pearson.Coefficient
	rep.PValue = rep.Pearson.PValue

	if opts.MaxLag > 0 {
		if rep.Lags, err = correlation.CrossCorrelation(x, y, opts.MaxLag); err != nil {
			return Report{}, err
		}
		if best, ok := correlation.OptimalLag(rep.Lags); ok {
			rep.BestLag = &best
		}
	}

	reg, err := correlation.LinearRegression(x, y)
	switch {
	case err == nil:
		rep.Regression = &reg
	case !errors.Is(err, common.ErrInvalidArgument):
		return Report{}, err
	}
	// constant FTRT column: no fit, report stays without regression

	return rep, nil
}

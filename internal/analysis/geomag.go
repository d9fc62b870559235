package analysis

import (
	"math"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/stats"
)

// NOAA G-scale thresholds on the Kp scale.
const (
	KpStormMinor  = 5.0 // G1
	KpStormSevere = 8.0 // G4
)

// KpSummary describes the daily-maximum Kp of a series.
type KpSummary struct {
	Days         int     `json:"days"`
	StormDays    int     `json:"storm_days"`
	QuietDays    int     `json:"quiet_days"`
	MeanDailyMax float64 `json:"mean_daily_max"`
	PeakKp       float64 `json:"peak_kp"`
}

// KpStormDays counts calendar days whose maximum Kp is at least threshold.
// 3-hourly samples are reduced to their daily maximum first.
func KpStormDays(series solar.Series, threshold float64) int {
	n := 0
	for _, p := range series.Daily(solar.AggMax) {
		if p.Value >= threshold {
			n++
		}
	}
	return n
}

// SummarizeKp reports storm days (daily max >= stormThreshold) and quiet days
// (daily max <= baseline).
func SummarizeKp(series solar.Series, baseline, stormThreshold float64) KpSummary {
	daily := series.Daily(solar.AggMax)
	values := daily.Values()

	s := KpSummary{
		Days:         len(daily),
		MeanDailyMax: stats.Mean(values),
		PeakKp:       stats.Max(values),
	}
	for _, v := range values {
		if v >= stormThreshold {
			s.StormDays++
		}
		if v <= baseline {
			s.QuietDays++
		}
	}
	return s
}

// ExcessOverBaseline returns the daily maximum Kp minus baseline, floored at 0.
// The result is a disturbance series to correlate against the tidal index.
func ExcessOverBaseline(series solar.Series, baseline float64) solar.Series {
	daily := series.Daily(solar.AggMax)
	for i := range daily {
		daily[i].Value = math.Max(0, daily[i].Value-baseline)
	}
	return daily
}

// Package analysis joins the tidal index with observed solar and geomagnetic
// series: window alignment, the FTRT/solar correlation report, peak to event
// matching and Kp storm counting.
package analysis

import (
	"sort"
	"time"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

// DefaultWindowDays is the solar averaging window after each FTRT sample.
const DefaultWindowDays = 30

// Pair is one FTRT sample with the mean solar value of its window.
type Pair struct {
	Date    time.Time `json:"date"`
	FTRT    float64   `json:"ftrt"`
	Solar   float64   `json:"solar"`
	Samples int       `json:"samples"`
}

// AlignByWindow pairs each snapshot with the mean of the solar values dated in
// [date, date+windowDays). Snapshots whose window holds no solar data are
// dropped. The solar series does not need to be sorted.
func AlignByWindow(ftrt []tidal.Snapshot, series solar.Series, windowDays int) ([]Pair, error) {
	if windowDays <= 0 {
		return nil, common.InvalidArgument("window must be positive, got %d days", windowDays)
	}

	sorted := make(solar.Series, len(series))
	copy(sorted, series)
	sorted.SortByDate()

	out := make([]Pair, 0, len(ftrt))
	for _, snap := range ftrt {
		from := snap.Date
		to := from.AddDate(0, 0, windowDays)

		i := sort.Search(len(sorted), func(k int) bool { return !sorted[k].Date.Before(from) })
		var sum float64
		n := 0
		for ; i < len(sorted) && sorted[i].Date.Before(to); i++ {
			sum += sorted[i].Value
			n++
		}
		if n == 0 {
			continue
		}
		out = append(out, Pair{
			Date:    snap.Date,
			FTRT:    snap.NormalizedIndex,
			Solar:   sum / float64(n),
			Samples: n,
		})
	}
	return out, nil
}

// Columns splits pairs into the FTRT and solar columns.
func Columns(pairs []Pair) (ftrt, sol []float64) {
	ftrt = make([]float64, len(pairs))
	sol = make([]float64, len(pairs))
	for i, p := range pairs {
		ftrt[i] = p.FTRT
		sol[i] = p.Solar
	}
	return ftrt, sol
}

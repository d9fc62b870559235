package analysis

import (
	"sort"
	"time"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/correlation"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

// Match links an FTRT peak to the first catalog event that follows it within
// the window.
type Match struct {
	Peak    tidal.Peak  `json:"peak"`
	Event   solar.Event `json:"event"`
	LagDays int         `json:"lag_days"`
}

// PeakMatch summarises how often FTRT peaks are followed by events.
type PeakMatch struct {
	Peaks    int                    `json:"peaks"`
	Hits     int                    `json:"hits"`
	HitRate  float64                `json:"hit_rate"`
	BaseRate float64                `json:"base_rate"`
	Matches  []Match                `json:"matches,omitempty"`
	Test     correlation.TestResult `json:"test"`
	Tested   bool                   `json:"tested"`
}

func sortedEvents(events []solar.Event) []solar.Event {
	out := make([]solar.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// firstEventIn returns the index of the first event on a calendar day in
// [from, to], or -1. from and to are midnights; events carrying a time of day
// on the last day still count.
func firstEventIn(events []solar.Event, from, to time.Time) int {
	end := to.AddDate(0, 0, 1)
	i := sort.Search(len(events), func(k int) bool { return !events[k].Date.Before(from) })
	if i < len(events) && events[i].Date.Before(end) {
		return i
	}
	return -1
}

// EstimateBaseRate is the fraction of days in [from, to] that have an event
// within the following windowDays. It is the hit rate expected from peaks
// placed at random.
func EstimateBaseRate(events []solar.Event, from, to time.Time, windowDays int) float64 {
	from, to = solar.Day(from), solar.Day(to)
	if to.Before(from) || windowDays < 0 {
		return 0
	}
	sorted := sortedEvents(events)

	days, hits := 0, 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days++
		if firstEventIn(sorted, d, d.AddDate(0, 0, windowDays)) >= 0 {
			hits++
		}
	}
	return float64(hits) / float64(days)
}

// MatchPeaksToEvents counts the peaks followed by an event within windowDays
// (inclusive, same day counts) and tests the hit rate against baseRate with a
// binomial test. A baseRate of 0 is estimated from the events over the span
// of the peaks. The test is skipped when the base rate is 0 or 1.
func MatchPeaksToEvents(peaks []tidal.Peak, events []solar.Event, windowDays int, baseRate float64) (PeakMatch, error) {
	if windowDays < 0 {
		return PeakMatch{}, common.InvalidArgument("negative window %d days", windowDays)
	}
	if baseRate < 0 || baseRate > 1 {
		return PeakMatch{}, common.InvalidArgument("base rate %v outside [0,1]", baseRate)
	}

	res := PeakMatch{Peaks: len(peaks)}
	if len(peaks) == 0 {
		return res, nil
	}

	sorted := sortedEvents(events)
	first, last := peaks[0].Date, peaks[0].Date
	for _, p := range peaks {
		from := solar.Day(p.Date)
		if p.Date.Before(first) {
			first = p.Date
		}
		if p.Date.After(last) {
			last = p.Date
		}

		i := firstEventIn(sorted, from, from.AddDate(0, 0, windowDays))
		if i < 0 {
			continue
		}
		res.Hits++
		res.Matches = append(res.Matches, Match{
			Peak:    p,
			Event:   sorted[i],
			LagDays: int(solar.Day(sorted[i].Date).Sub(from).Hours() / 24),
		})
	}
	res.HitRate = float64(res.Hits) / float64(res.Peaks)

	if baseRate == 0 {
		baseRate = EstimateBaseRate(sorted, first, last, windowDays)
	}
	res.BaseRate = baseRate
	if baseRate > 0 && baseRate < 1 {
		test, err := correlation.BinomialTest(res.Hits, res.Peaks, baseRate)
		if err != nil {
			return PeakMatch{}, err
		}
		res.Test = test
		res.Tested = true
	}
	return res, nil
}

// Package solar provides solar flux and geomagnetic index records.
// This package handles NOAA, SIDC and GFZ Potsdam inputs and turns them into
// the date-ordered series consumed by the correlation and FTRT tools.
package solar

import (
	"sort"
	"time"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

// SchemaVersion is the current solar schema version.
const SchemaVersion = 2

// Field names accepted by Index.Field and the store reader.
const (
	FieldSFI          = "observed_flux" // Solar Flux Index (10.7cm)
	FieldAdjustedFlux = "adjusted_flux" // Adjusted F10.7
	FieldSSN          = "ssn"           // Sunspot number
	FieldKp           = "kp_index"      // Planetary K-index (0-9)
	FieldAp           = "ap_index"      // Planetary A-index
)

// Missing marks a field the source did not provide or reported as absent.
// Real observations are never negative, so readers skip values below 0.
const Missing float32 = -1

// Fields lists every numeric field of Index in column order.
var Fields = []string{FieldSFI, FieldAdjustedFlux, FieldSSN, FieldKp, FieldAp}

// Index represents one row of solar.indices_raw. Daily sources fill Time with
// midnight; GFZ backfill rows carry the 3-hour bucket start. Fields a source
// does not carry hold Missing.
type Index struct {
	Date         time.Time `ch:"date"`
	Time         time.Time `ch:"time"`
	ObservedFlux float32   `ch:"observed_flux"`
	AdjustedFlux float32   `ch:"adjusted_flux"`
	SSN          float32   `ch:"ssn"`
	KpIndex      float32   `ch:"kp_index"`
	ApIndex      float32   `ch:"ap_index"`
	SourceFile   string    `ch:"source_file"`
}

// Field returns the named numeric field.
func (ix Index) Field(name string) (float64, error) {
	switch name {
	case FieldSFI:
		return float64(ix.ObservedFlux), nil
	case FieldAdjustedFlux:
		return float64(ix.AdjustedFlux), nil
	case FieldSSN:
		return float64(ix.SSN), nil
	case FieldKp:
		return float64(ix.KpIndex), nil
	case FieldAp:
		return float64(ix.ApIndex), nil
	}
	return 0, common.InvalidArgument("unknown solar field %q", name)
}

// ValidField reports whether name is one of Fields.
func ValidField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

// TimePoint is one observation of a daily series.
type TimePoint struct {
	Date  time.Time `json:"date" parquet:"date,timestamp(millisecond)"`
	Value float64   `json:"value" parquet:"value"`
}

// Series is a date-ordered slice of observations.
type Series []TimePoint

// Values returns the observation values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Dates returns the observation dates in order.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// SortByDate orders s ascending by date, keeping the relative order of equal
// dates.
func (s Series) SortByDate() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// Aggregate reduces the samples of one day to a single value.
type Aggregate int

const (
	AggMean Aggregate = iota
	AggMax
)

// Daily buckets s by UTC calendar day and reduces each bucket. The result is
// sorted by date and stamped at midnight UTC.
func (s Series) Daily(agg Aggregate) Series {
	type bucket struct {
		sum, max float64
		n        int
	}
	buckets := make(map[time.Time]*bucket)
	var days []time.Time

	for _, p := range s {
		d := Day(p.Date)
		b, ok := buckets[d]
		if !ok {
			b = &bucket{max: p.Value}
			buckets[d] = b
			days = append(days, d)
		}
		b.sum += p.Value
		b.n++
		if p.Value > b.max {
			b.max = p.Value
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	out := make(Series, len(days))
	for i, d := range days {
		b := buckets[d]
		v := b.sum / float64(b.n)
		if agg == AggMax {
			v = b.max
		}
		out[i] = TimePoint{Date: d, Value: v}
	}
	return out
}

// Between returns the points with from <= date <= to.
func (s Series) Between(from, to time.Time) Series {
	var out Series
	for _, p := range s {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// newIndex returns a row at t with every numeric field Missing.
func newIndex(date, t time.Time, sourceFile string) Index {
	return Index{
		Date:         date,
		Time:         t,
		ObservedFlux: Missing,
		AdjustedFlux: Missing,
		SSN:          Missing,
		KpIndex:      Missing,
		ApIndex:      Missing,
		SourceFile:   sourceFile,
	}
}

// ToSeries projects indices onto one field, sorted by timestamp. Rows where
// the field is Missing are left out.
func ToSeries(indices []Index, field string) (Series, error) {
	out := make(Series, 0, len(indices))
	for _, ix := range indices {
		v, err := ix.Field(field)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			continue
		}
		ts := ix.Time
		if ts.IsZero() {
			ts = ix.Date
		}
		out = append(out, TimePoint{Date: ts, Value: v})
	}
	out.SortByDate()
	return out, nil
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

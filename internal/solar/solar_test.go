package solar

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

func at(d, h int) time.Time {
	return time.Date(2024, time.May, d, h, 0, 0, 0, time.UTC)
}

func TestIndexField(t *testing.T) {
	ix := Index{ObservedFlux: 150, AdjustedFlux: 151, SSN: 90, KpIndex: 4.333, ApIndex: 32}
	for _, f := range Fields {
		_, err := ix.Field(f)
		require.NoError(t, err, f)
		assert.True(t, ValidField(f))
	}
	v, _ := ix.Field(FieldAp)
	assert.Equal(t, 32.0, v)

	_, err := ix.Field("dst")
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
	assert.False(t, ValidField("dst"))
}

func TestToSeries_SortsByTime(t *testing.T) {
	rows := []Index{
		{Date: at(10, 0), Time: at(10, 6), KpIndex: 3},
		{Date: at(10, 0), Time: at(10, 0), KpIndex: 1},
		{Date: at(9, 0), KpIndex: 2},
	}
	s, err := ToSeries(rows, FieldKp)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 3}, s.Values())
	assert.Equal(t, at(9, 0), s.Dates()[0])
}

func TestToSeries_SkipsMissing(t *testing.T) {
	quiet := newIndex(at(9, 0), at(9, 0), "gfz")
	quiet.KpIndex = 0
	gap := newIndex(at(10, 0), at(10, 0), "gfz")
	sidc := newIndex(at(11, 0), at(11, 0), "sidc")
	sidc.SSN = 120

	rows := []Index{quiet, gap, sidc}
	kp, err := ToSeries(rows, FieldKp)
	require.NoError(t, err)
	require.Len(t, kp, 1)
	assert.Equal(t, 0.0, kp[0].Value)

	ssn, err := ToSeries(rows, FieldSSN)
	require.NoError(t, err)
	assert.Equal(t, []float64{120}, ssn.Values())
}

func TestSeriesDaily(t *testing.T) {
	s := Series{
		{Date: at(10, 3), Value: 4},
		{Date: at(9, 0), Value: 1},
		{Date: at(10, 0), Value: 2},
		{Date: at(9, 21), Value: 5},
	}

	mean := s.Daily(AggMean)
	require.Len(t, mean, 2)
	assert.Equal(t, at(9, 0), mean[0].Date)
	assert.Equal(t, 3.0, mean[0].Value)
	assert.Equal(t, 3.0, mean[1].Value)

	peak := s.Daily(AggMax)
	assert.Equal(t, []float64{5, 4}, peak.Values())
}

func TestSeriesBetween(t *testing.T) {
	s := Series{{Date: at(1, 0)}, {Date: at(2, 0)}, {Date: at(3, 0)}}
	assert.Len(t, s.Between(at(2, 0), at(3, 0)), 2)
	assert.Empty(t, s.Between(at(4, 0), at(5, 0)))
}

func TestSynthetic_Deterministic(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a := Synthetic(start, 60, 7)
	b := Synthetic(start, 60, 7)
	c := Synthetic(start, 60, 8)

	require.Len(t, a, 60)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, Day(start), a[0].Date)
	assert.Equal(t, Day(start).AddDate(0, 0, 59), a[59].Date)

	for _, ix := range a {
		assert.GreaterOrEqual(t, ix.ObservedFlux, float32(65))
		assert.GreaterOrEqual(t, ix.SSN, float32(0))
		assert.GreaterOrEqual(t, ix.KpIndex, float32(0))
		assert.LessOrEqual(t, ix.KpIndex, float32(9))
	}
	assert.Nil(t, Synthetic(start, 0, 1))
}

func TestKpToAp(t *testing.T) {
	assert.Equal(t, 0.0, kpToAp(0))
	assert.Equal(t, 400.0, kpToAp(9))
	assert.Equal(t, 400.0, kpToAp(12))
	assert.Equal(t, 27.0, kpToAp(4))
}

func TestLoadEvents(t *testing.T) {
	f, err := os.Open("testdata/events.json")
	require.NoError(t, err)
	defer f.Close()

	events, err := LoadEvents(f)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventFlare, events[0].Kind)
	assert.Equal(t, "X9.3", events[0].Magnitude)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), events[1].Date)
	assert.Len(t, EventDates(events), 2)

	_, err = LoadEvents(strings.NewReader(`[{"date":"10/05/2024","kind":"cme"}]`))
	assert.Error(t, err)
}

func TestLoadEventsFile(t *testing.T) {
	events, err := LoadEventsFile("testdata/events.json")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestDefaultEvents_Sorted(t *testing.T) {
	events := DefaultEvents()
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Date.Before(events[i-1].Date))
	}
}

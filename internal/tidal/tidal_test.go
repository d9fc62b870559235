package tidal

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(DefaultTable(), nil)
	require.NoError(t, err)
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateToJulianDay(t *testing.T) {
	assert.Equal(t, 2451545, DateToJulianDay(day(2000, time.January, 1)))
	assert.Equal(t, 2460311, DateToJulianDay(day(2024, time.January, 1)))
	// Time of day does not change the day number.
	assert.Equal(t, 2451545, DateToJulianDay(time.Date(2000, 1, 1, 23, 59, 0, 0, time.UTC)))
}

func TestJulianDayRoundTrip(t *testing.T) {
	for d := day(1600, time.February, 28); d.Before(day(2400, time.January, 1)); d = d.AddDate(0, 0, 37) {
		jd := DateToJulianDay(d)
		require.True(t, d.Equal(JulianDayToDate(jd)), "round trip failed for %s (jd %d)", d.Format("2006-01-02"), jd)
	}
	assert.True(t, day(2024, time.February, 29).Equal(JulianDayToDate(DateToJulianDay(day(2024, time.February, 29)))))
}

func TestFTRT_Invariants(t *testing.T) {
	c := newCalculator(t)

	for d := day(1950, time.January, 1); d.Before(day(2050, time.January, 1)); d = d.AddDate(0, 0, 97) {
		snap := c.FTRT(d)

		require.GreaterOrEqual(t, snap.NormalizedIndex, 0.0)
		require.LessOrEqual(t, snap.NormalizedIndex, 1.0)
		require.Greater(t, snap.DominantForcePercentage, 0.0)
		require.LessOrEqual(t, snap.DominantForcePercentage, 100.0)
		require.Len(t, snap.IndividualForces, 8)

		var sum float64
		for name, f := range snap.IndividualForces {
			require.GreaterOrEqual(t, f, 0.0)
			require.LessOrEqual(t, f, snap.IndividualForces[snap.DominantBody], "%s beats dominant %s", name, snap.DominantBody)
			sum += f
		}
		require.InDelta(t, snap.TotalForce, sum, snap.TotalForce*1e-12)
		require.InDelta(t, math.Min(snap.TotalForce/c.Table().ReferenceForce, 1), snap.NormalizedIndex, 1e-15)
	}
}

func TestFTRT_DominantTieGoesToFirstBody(t *testing.T) {
	table := DefaultTable()
	twin := table.Bodies[4]
	twin.Name = "jupiter-twin"
	table.Bodies = []Body{table.Bodies[4], twin}

	c, err := NewCalculator(table, nil)
	require.NoError(t, err)

	snap := c.FTRT(day(2010, time.June, 1))
	assert.Equal(t, "jupiter", snap.DominantBody)
	assert.InDelta(t, 50.0, snap.DominantForcePercentage, 1e-9)
}

func TestFTRT_IndexClamped(t *testing.T) {
	table := DefaultTable()
	table.ReferenceForce = 1e-12

	c, err := NewCalculator(table, nil)
	require.NoError(t, err)

	snap := c.FTRT(day(2001, time.March, 3))
	assert.Equal(t, 1.0, snap.NormalizedIndex)
	assert.Greater(t, snap.TotalForce, table.ReferenceForce)
}

func TestPlanetaryTidalForce(t *testing.T) {
	c := newCalculator(t)
	d := day(2015, time.July, 14)
	snap := c.FTRT(d)

	f := c.PlanetaryTidalForce("Jupiter", float64(snap.JulianDay))
	assert.Equal(t, snap.IndividualForces["jupiter"], f)
}

func TestPlanetaryTidalForce_UnknownBodyWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c, err := NewCalculator(DefaultTable(), zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, 0.0, c.PlanetaryTidalForce("pluto", 2451545))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "pluto", entry.ContextMap()["body"])
}

func TestTimeSeries(t *testing.T) {
	c := newCalculator(t)

	series, err := c.TimeSeries(day(2024, time.January, 1), day(2024, time.January, 10), 3)
	require.NoError(t, err)
	require.Len(t, series, 4)
	assert.True(t, series[3].Date.Equal(day(2024, time.January, 10)))

	series, err = c.TimeSeries(day(2024, time.January, 1), day(2024, time.January, 12), 3)
	require.NoError(t, err)
	require.Len(t, series, 4)
	assert.True(t, series[3].Date.Equal(day(2024, time.January, 10)))

	series, err = c.TimeSeries(day(2024, time.January, 5), day(2024, time.January, 1), 1)
	require.NoError(t, err)
	assert.Empty(t, series)

	_, err = c.TimeSeries(day(2024, time.January, 1), day(2024, time.January, 5), 0)
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestAlignmentScore(t *testing.T) {
	c := newCalculator(t)
	for d := day(1990, time.January, 1); d.Before(day(2030, time.January, 1)); d = d.AddDate(0, 2, 0) {
		s := c.AlignmentScore(d)
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}

	table := DefaultTable()
	table.Bodies = table.Bodies[:1]
	single, err := NewCalculator(table, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, single.AlignmentScore(day(2020, time.May, 5)))
}

func TestSynodicPeriod(t *testing.T) {
	c := newCalculator(t)

	p, err := c.SynodicPeriod("earth", "venus")
	require.NoError(t, err)
	assert.InDelta(t, 583.92, p, 0.05)

	sym, err := c.SynodicPeriod("venus", "earth")
	require.NoError(t, err)
	assert.Equal(t, p, sym)

	_, err = c.SynodicPeriod("earth", "earth")
	assert.True(t, errors.Is(err, common.ErrNoSynodicPeriod))

	_, err = c.SynodicPeriod("earth", "pluto")
	assert.True(t, errors.Is(err, common.ErrUnknownBody))
}

func TestNewCalculator_CopiesTable(t *testing.T) {
	table := DefaultTable()
	c, err := NewCalculator(table, nil)
	require.NoError(t, err)

	table.Bodies[0].Mass = 1
	b, ok := c.Body("mercury")
	require.True(t, ok)
	assert.Equal(t, 3.301e23, b.Mass)
}

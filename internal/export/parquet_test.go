package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

func TestSnapshotsRoundTrip(t *testing.T) {
	c, err := tidal.NewCalculator(tidal.DefaultTable(), nil)
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snaps, err := c.TimeSeries(start, start.AddDate(0, 0, 2499), 1)
	require.NoError(t, err)
	alignment := make([]float64, len(snaps))
	for i, s := range snaps {
		alignment[i] = c.AlignmentScore(s.Date)
	}

	path := filepath.Join(t.TempDir(), "ftrt", "series.parquet")
	require.NoError(t, WriteSnapshots(path, snaps, alignment))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, gotAlign, err := ReadSnapshots(path)
	require.NoError(t, err)
	require.Len(t, got, len(snaps))
	assert.Equal(t, alignment, gotAlign)

	for _, i := range []int{0, 1234, len(snaps) - 1} {
		assert.True(t, snaps[i].Date.Equal(got[i].Date))
		assert.Equal(t, snaps[i].JulianDay, got[i].JulianDay)
		assert.Equal(t, snaps[i].NormalizedIndex, got[i].NormalizedIndex)
		assert.Equal(t, snaps[i].DominantBody, got[i].DominantBody)
		assert.Equal(t, snaps[i].IndividualForces, got[i].IndividualForces)
	}
}

func TestWriteSnapshots_AlignmentMismatch(t *testing.T) {
	err := WriteSnapshots(filepath.Join(t.TempDir(), "x.parquet"), make([]tidal.Snapshot, 2), []float64{1})
	assert.Error(t, err)
}

func TestNewSnapshotRecord_SortedBodies(t *testing.T) {
	rec := NewSnapshotRecord(tidal.Snapshot{
		IndividualForces: map[string]float64{"venus": 2, "earth": 1, "jupiter": 3},
	}, 0)
	assert.Equal(t, []string{"earth", "jupiter", "venus"}, rec.Bodies)
	assert.Equal(t, []float64{1, 3, 2}, rec.Forces)
}

func TestSeriesRoundTrip(t *testing.T) {
	rows := solar.Synthetic(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 90, 3)
	series, err := solar.ToSeries(rows, solar.FieldKp)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "kp.parquet")
	require.NoError(t, WriteSeries(path, series))

	got, err := ReadSeries(path)
	require.NoError(t, err)
	require.Len(t, got, len(series))
	assert.Equal(t, series.Values(), got.Values())
	assert.True(t, series[89].Date.Equal(got[89].Date))
	assert.Equal(t, time.UTC, got[0].Date.Location())
}

func TestReadSeries_Missing(t *testing.T) {
	_, err := ReadSeries(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}

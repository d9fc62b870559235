package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

func TestStrongestCycle(t *testing.T) {
	acf := []float64{1, 0.4, 0.1, 0.5, 0.2, 0.7, 0.3}
	lag, r := strongestCycle(acf)
	assert.Equal(t, 5, lag)
	assert.Equal(t, 0.7, r)

	lag, _ = strongestCycle([]float64{1, 0.9, 0.8, 0.7})
	assert.Zero(t, lag)
}

func TestAlignmentScores_MatchesSerial(t *testing.T) {
	calc, err := tidal.NewCalculator(tidal.DefaultTable(), nil)
	require.NoError(t, err)

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	series, err := calc.TimeSeries(start, start.AddDate(0, 0, 99), 1)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 3, 8, 200} {
		progress := common.NewProgress(nil)
		got, err := alignmentScores(context.Background(), calc, series, workers, progress)
		require.NoError(t, err)
		require.Len(t, got, len(series))
		for i, s := range series {
			assert.Equal(t, calc.AlignmentScore(s.Date), got[i], "workers=%d i=%d", workers, i)
		}
		assert.Equal(t, uint64(len(series)), progress.Snapshots(), "workers=%d", workers)
	}

	got, err := alignmentScores(context.Background(), calc, nil, 4, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAlignmentScores_Canceled(t *testing.T) {
	calc, err := tidal.NewCalculator(tidal.DefaultTable(), nil)
	require.NoError(t, err)
	series, err := calc.TimeSeries(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = alignmentScores(ctx, calc, series, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAlignmentScores_CountsLargeSeries(t *testing.T) {
	calc, err := tidal.NewCalculator(tidal.DefaultTable(), nil)
	require.NoError(t, err)
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	series, err := calc.TimeSeries(start, start.AddDate(0, 0, 3*progressStep+17), 1)
	require.NoError(t, err)

	progress := common.NewProgress(nil)
	_, err = alignmentScores(context.Background(), calc, series, 2, progress)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(series)), progress.Snapshots())
}

func TestRun_EmptyRangeReturnsError(t *testing.T) {
	r := runner{
		cfg:       &common.Config{},
		logger:    zap.NewNop(),
		startStr:  "2024-02-01",
		endStr:    "2024-01-01",
		step:      1,
		noParquet: true,
	}
	err := r.run(context.Background())
	require.Error(t, err)
}

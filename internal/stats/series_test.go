package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceInterval(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	sd := math.Sqrt(2.5)

	ci := ConfidenceInterval(data, 0.95)
	assert.InDelta(t, 3.0, ci.Mean, 1e-12)
	assert.InDelta(t, 1.96*sd/math.Sqrt(5), ci.Margin, 1e-12)
	assert.InDelta(t, ci.Mean-ci.Margin, ci.Lower, 1e-12)
	assert.InDelta(t, ci.Mean+ci.Margin, ci.Upper, 1e-12)

	ci99 := ConfidenceInterval(data, 0.99)
	assert.InDelta(t, 2.576*sd/math.Sqrt(5), ci99.Margin, 1e-12)
	assert.Equal(t, 0.99, ci99.Confidence)
}

func TestConfidenceInterval_UnsupportedLevelUsesDefault(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}

	got := ConfidenceInterval(data, 0.8)
	want := ConfidenceInterval(data, 0.95)

	assert.Equal(t, want, got)
	assert.Equal(t, DefaultConfidence, got.Confidence)
}

func TestHistogram(t *testing.T) {
	data := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	bins := Histogram(data, 5)

	counts := make([]int, len(bins))
	for i, b := range bins {
		counts[i] = b.Count
	}
	assert.Equal(t, []int{2, 2, 2, 2, 3}, counts)
	assert.Equal(t, 0.0, bins[0].Start)
	assert.Equal(t, 2.0, bins[0].End)
	assert.Equal(t, 10.0, bins[4].End)
}

func TestHistogram_UnsortedInputUnchanged(t *testing.T) {
	data := []float64{9.5, 0.1, 5, 5, 0.1, 9.5, 3}
	orig := append([]float64(nil), data...)
	bins := Histogram(data, 2)

	require.Len(t, bins, 2)
	assert.Equal(t, 3, bins[0].Count)
	assert.Equal(t, 4, bins[1].Count)
	assert.Equal(t, orig, data)
}

func TestHistogram_ConstantData(t *testing.T) {
	bins := Histogram([]float64{4, 4, 4}, 3)
	assert.Len(t, bins, 3)
	assert.Equal(t, 3, bins[0].Count)
	assert.Nil(t, Histogram([]float64{1, 2}, 0))
}

func TestMovingAverages(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2.25}, ExponentialMovingAverage([]float64{1, 2, 3}, 0.5))
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, MovingAverage([]float64{1, 2, 3, 4}, 2))
	assert.Nil(t, MovingAverage([]float64{1, 2}, 3))
	assert.Nil(t, MovingAverage([]float64{1, 2}, 0))
}

func TestCumulativeAndChange(t *testing.T) {
	assert.Equal(t, []float64{1, 3, 6}, CumulativeSum([]float64{1, 2, 3}))
	assert.Equal(t, []float64{-1, -1, 1.5}, CumulativeSum([]float64{-1, 0, 2.5}))
	assert.Empty(t, CumulativeSum(nil))

	change := PercentageChange([]float64{100, 110, 0, 50})
	assert.Len(t, change, 3)
	assert.InDelta(t, 10.0, change[0], 1e-12)
	assert.InDelta(t, -100.0, change[1], 1e-12)
	assert.Equal(t, 0.0, change[2])
}

package correlation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

func TestPearson(t *testing.T) {
	x := []float64{1.5, 3, 2, 8, 5.25}

	r, err := Pearson(x, x)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	neg := make([]float64, len(x))
	for i, v := range x {
		neg[i] = -2*v + 7
	}
	r, err = Pearson(x, neg)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)

	r, err = Pearson(x, []float64{4, 4, 4, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
}

func TestPearson_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
	}{
		{"empty", nil, nil},
		{"empty y", []float64{1}, nil},
		{"length mismatch", []float64{1, 2, 3}, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Pearson(tt.x, tt.y)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidArgument))

			_, err = Spearman(tt.x, tt.y)
			assert.True(t, errors.Is(err, common.ErrInvalidArgument))
		})
	}
}

func TestSpearman(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 4, 9, 16, 250}

	r, err := Spearman(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, err = Spearman(x, []float64{50, 40, 30, 20, 10})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)
}

func TestRanks_TiesKeepInputOrder(t *testing.T) {
	assert.Equal(t, []float64{1, 3, 2}, Ranks([]float64{10, 20, 10}))
	assert.Equal(t, []float64{3, 1, 2}, Ranks([]float64{0.9, 0.1, 0.5}))
}

func TestCorrelate(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	res, err := Correlate(x, x, MethodSpearman)
	require.NoError(t, err)
	assert.Equal(t, MethodSpearman, res.Method)
	assert.InDelta(t, 1.0, res.Coefficient, 1e-12)
	assert.Equal(t, 10, res.SampleSize)
	assert.Equal(t, "very strong", res.Strength)
	assert.Equal(t, HighlySignificant, res.Significance)

	res, err = Correlate(x, x, "")
	require.NoError(t, err)
	assert.Equal(t, MethodPearson, res.Method)

	_, err = Correlate(x, x, "kendall")
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestStrength(t *testing.T) {
	assert.Equal(t, "very strong", Strength(-0.85))
	assert.Equal(t, "strong", Strength(0.6))
	assert.Equal(t, "moderate", Strength(0.45))
	assert.Equal(t, "weak", Strength(-0.2))
	assert.Equal(t, "very weak", Strength(0.05))
}

func TestAutocorrelation(t *testing.T) {
	acf, err := Autocorrelation([]float64{1, 2, 3, 4, 5}, 2)
	require.NoError(t, err)
	require.Len(t, acf, 3)
	assert.InDelta(t, 1.0, acf[0], 1e-12)
	assert.InDelta(t, 0.4, acf[1], 1e-12)
	assert.InDelta(t, -0.1, acf[2], 1e-12)

	acf, err = Autocorrelation([]float64{1, 2, 3}, 10)
	require.NoError(t, err)
	assert.Len(t, acf, 3)

	acf, err = Autocorrelation([]float64{2, 2, 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, acf)

	_, err = Autocorrelation(nil, 1)
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
	_, err = Autocorrelation([]float64{1, 2}, -1)
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestLinearRegression(t *testing.T) {
	reg, err := LinearRegression([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, reg.Slope, 1e-12)
	assert.InDelta(t, 1.0, reg.Intercept, 1e-12)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-12)
	assert.InDelta(t, 11.0, reg.Predict(5), 1e-12)
	require.Len(t, reg.FittedValues, 4)
	assert.InDelta(t, 9.0, reg.FittedValues[3], 1e-12)

	reg, err = LinearRegression([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	require.NoError(t, err)
	assert.Greater(t, reg.RSquared, 0.0)
	assert.Less(t, reg.RSquared, 1.0)
}

func TestLinearRegression_Degenerate(t *testing.T) {
	reg, err := LinearRegression([]float64{1, 2, 3}, []float64{2, 2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, reg.Slope, 1e-12)
	assert.Equal(t, 0.0, reg.RSquared)

	_, err = LinearRegression([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))

	_, err = LinearRegression([]float64{1, 2}, []float64{1})
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestPearson_NoNaNOnZeroVariance(t *testing.T) {
	r, err := Pearson([]float64{1, 1}, []float64{1, 1})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(r))
}

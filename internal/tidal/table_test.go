package tidal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

func TestDefaultTable_Valid(t *testing.T) {
	require.NoError(t, DefaultTable().Validate())
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Table)
	}{
		{"nan mass", func(t *Table) { t.Bodies[0].Mass = math.NaN() }},
		{"negative period", func(t *Table) { t.Bodies[1].OrbitalPeriod = -1 }},
		{"zero axis", func(t *Table) { t.Bodies[2].SemiMajorAxis = 0 }},
		{"infinite mass", func(t *Table) { t.Bodies[3].Mass = math.Inf(1) }},
		{"duplicate", func(t *Table) { t.Bodies[1].Name = "MERCURY" }},
		{"empty name", func(t *Table) { t.Bodies[0].Name = " " }},
		{"no bodies", func(t *Table) { t.Bodies = nil }},
		{"eccentricity", func(t *Table) { t.Eccentricity = 1 }},
		{"reference force", func(t *Table) { t.ReferenceForce = 0 }},
		{"gravity", func(t *Table) { t.GravitationalConstant = math.NaN() }},
		{"negative baseline", func(t *Table) { t.GeomagneticBaseline = -1 }},
		{"baseline above Kp scale", func(t *Table) { t.GeomagneticBaseline = 12 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := DefaultTable()
			tt.mutate(&table)

			err := table.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidArgument))

			_, err = NewCalculator(table, nil)
			assert.True(t, errors.Is(err, common.ErrInvalidArgument))
		})
	}
}

func TestLoadTable(t *testing.T) {
	table, err := LoadTable("testdata/planets.yaml")
	require.NoError(t, err)
	assert.Len(t, table.Bodies, 2)
	assert.Equal(t, 2.5, table.GeomagneticBaseline)
	assert.Equal(t, 1.0e-9, table.ReferenceForce)

	c, err := NewCalculator(table, nil)
	require.NoError(t, err)
	_, ok := c.Body("venus")
	assert.True(t, ok)

	snap := c.FTRT(day(2020, 1, 1))
	assert.Len(t, snap.IndividualForces, 2)
	assert.Contains(t, []string{"Venus", "Jupiter"}, snap.DominantBody)
}

func TestLoadTable_MissingKeysKeepDefaults(t *testing.T) {
	table, err := LoadTable("testdata/partial.yaml")
	require.NoError(t, err)

	def := DefaultTable()
	assert.Equal(t, def.Eccentricity, table.Eccentricity)
	assert.Equal(t, def.GeomagneticBaseline, table.GeomagneticBaseline)
	assert.Equal(t, def.GravitationalConstant, table.GravitationalConstant)
	assert.Equal(t, def.ReferenceRadius, table.ReferenceRadius)
	assert.Equal(t, 1.0e-9, table.ReferenceForce)
	require.Len(t, table.Bodies, 1, "a bodies list replaces the built-in planets")
	assert.Equal(t, "jupiter", table.Bodies[0].Name)

	_, err = LoadTable("testdata/empty_bodies.yaml")
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestLoadTable_Errors(t *testing.T) {
	_, err := LoadTable("testdata/bad_period.yaml")
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))

	_, err = LoadTable("testdata/missing.yaml")
	assert.Error(t, err)
}

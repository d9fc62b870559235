// Package tidal computes the FTRT index: the normalized sum of simplified
// planetary tidal forces acting on the Sun for a calendar day.
//
// Orbits are reduced to a mean anomaly 2π·JD/period and a fixed eccentricity,
// giving distance a·(1 − e·cos M). Each body contributes 2·G·M·R/d³. The
// model is meant for comparing days against each other, not for ephemerides.
package tidal

import (
	"math"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

// Snapshot is the FTRT state for one day.
type Snapshot struct {
	Date                    time.Time          `json:"date"`
	JulianDay               int                `json:"julian_day"`
	IndividualForces        map[string]float64 `json:"individual_forces"`
	TotalForce              float64            `json:"total_force"`
	NormalizedIndex         float64            `json:"normalized_index"`
	DominantBody            string             `json:"dominant_body"`
	DominantForcePercentage float64            `json:"dominant_force_percentage"`
}

// Calculator evaluates the tidal model against an injected constants table.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	table  Table
	index  map[string]int
	logger *zap.Logger
}

// NewCalculator validates table and returns a calculator over a private copy
// of it. A nil logger discards warnings.
func NewCalculator(table Table, logger *zap.Logger) (*Calculator, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := table.clone()
	index := make(map[string]int, len(t.Bodies))
	for i, b := range t.Bodies {
		index[normalizeName(b.Name)] = i
	}
	return &Calculator{
		table:  t,
		index:  index,
		logger: logger.Named("tidal"),
	}, nil
}

// Table returns a copy of the constants in use.
func (c *Calculator) Table() Table {
	return c.table.clone()
}

// Body looks up a body by case-insensitive name.
func (c *Calculator) Body(name string) (Body, bool) {
	i, ok := c.index[normalizeName(name)]
	if !ok {
		return Body{}, false
	}
	return c.table.Bodies[i], true
}

// MeanAnomaly returns 2π·jd/period for b, in radians (not reduced).
func MeanAnomaly(b Body, jd float64) float64 {
	return 2 * math.Pi * jd / b.OrbitalPeriod
}

func (c *Calculator) force(b Body, jd float64) float64 {
	m := MeanAnomaly(b, jd)
	d := b.SemiMajorAxis * (1 - c.table.Eccentricity*math.Cos(m))
	return 2 * c.table.GravitationalConstant * b.Mass * c.table.ReferenceRadius / (d * d * d)
}

// PlanetaryTidalForce returns the tidal contribution of the named body on
// Julian day jd. An unknown body logs a warning and contributes 0 so that a
// long series is not aborted by one bad lookup.
func (c *Calculator) PlanetaryTidalForce(body string, jd float64) float64 {
	b, ok := c.Body(body)
	if !ok {
		c.logger.Warn("unknown body, contributing zero force",
			zap.String("body", body),
			zap.Float64("julian_day", jd),
		)
		return 0
	}
	return c.force(b, jd)
}

// FTRT computes the snapshot for date's UTC calendar day.
func (c *Calculator) FTRT(date time.Time) Snapshot {
	day := truncateDay(date)
	jd := DateToJulianDay(day)

	snap := Snapshot{
		Date:             day,
		JulianDay:        jd,
		IndividualForces: make(map[string]float64, len(c.table.Bodies)),
	}

	best := -1.0
	for _, b := range c.table.Bodies {
		f := c.force(b, float64(jd))
		snap.IndividualForces[b.Name] = f
		snap.TotalForce += f
		if f > best {
			best = f
			snap.DominantBody = b.Name
		}
	}

	snap.NormalizedIndex = math.Min(snap.TotalForce/c.table.ReferenceForce, 1)
	if snap.TotalForce > 0 {
		snap.DominantForcePercentage = best / snap.TotalForce * 100
	}
	return snap
}

// TimeSeries returns snapshots from start to end, advancing stepDays at a
// time. end is included when it falls exactly on a step; otherwise the
// series stops at the last step before it. An end before start yields an
// empty series.
func (c *Calculator) TimeSeries(start, end time.Time, stepDays int) ([]Snapshot, error) {
	if stepDays <= 0 {
		return nil, common.InvalidArgument("step must be positive, got %d days", stepDays)
	}
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return []Snapshot{}, nil
	}

	n := int(end.Sub(start).Hours()/24)/stepDays + 1
	series := make([]Snapshot, 0, n)
	for d := start; !d.After(end); d = d.AddDate(0, 0, stepDays) {
		series = append(series, c.FTRT(d))
	}
	return series, nil
}

// AlignmentScore measures how tightly the bodies' orbital angles cluster on
// date: 1 − sqrt(var(angles))/π, clamped to [0,1]. Angles are taken modulo
// 2π and their variance is the plain population variance.
func (c *Calculator) AlignmentScore(date time.Time) float64 {
	jd := float64(DateToJulianDay(date))

	angles := make([]float64, len(c.table.Bodies))
	var mean float64
	for i, b := range c.table.Bodies {
		a := math.Mod(MeanAnomaly(b, jd), 2*math.Pi)
		if a < 0 {
			a += 2 * math.Pi
		}
		angles[i] = a
		mean += a
	}
	mean /= float64(len(angles))

	var variance float64
	for _, a := range angles {
		variance += (a - mean) * (a - mean)
	}
	variance /= float64(len(angles))

	score := 1 - math.Sqrt(variance)/math.Pi
	return math.Max(0, math.Min(1, score))
}

// SynodicPeriod returns 1/|1/Pa − 1/Pb| in days. Unknown bodies return
// ErrUnknownBody; equal periods never realign and return ErrNoSynodicPeriod
// instead of +Inf.
func (c *Calculator) SynodicPeriod(a, b string) (float64, error) {
	ba, ok := c.Body(a)
	if !ok {
		return 0, errors.Wrapf(common.ErrUnknownBody, "%q", a)
	}
	bb, ok := c.Body(b)
	if !ok {
		return 0, errors.Wrapf(common.ErrUnknownBody, "%q", b)
	}

	diff := math.Abs(1/ba.OrbitalPeriod - 1/bb.OrbitalPeriod)
	if diff == 0 {
		return 0, errors.Wrapf(common.ErrNoSynodicPeriod, "%s and %s share a %.3f day period", ba.Name, bb.Name, ba.OrbitalPeriod)
	}
	return 1 / diff, nil
}

package tidal

import (
	"math"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
)

// Body holds the orbital constants of one planet.
type Body struct {
	Name          string  `yaml:"name"`
	Mass          float64 `yaml:"mass_kg"`
	SemiMajorAxis float64 `yaml:"semi_major_axis_m"`
	OrbitalPeriod float64 `yaml:"orbital_period_days"`
}

// Table is the immutable constants set the calculator is built from. Body
// order matters: it is the iteration order for sums and the tie-break order
// for the dominant body.
type Table struct {
	GravitationalConstant float64 `yaml:"gravitational_constant"`
	ReferenceRadius       float64 `yaml:"reference_radius_m"` // radius of the body the tides act on (the Sun)
	ReferenceForce        float64 `yaml:"reference_force"`    // total force mapped to index 1.0
	Eccentricity          float64 `yaml:"eccentricity"`
	GeomagneticBaseline   float64 `yaml:"geomagnetic_baseline"` // quiet-time Kp level
	Bodies                []Body  `yaml:"bodies"`
}

// DefaultTable returns the built-in constants for the eight planets.
func DefaultTable() Table {
	return Table{
		GravitationalConstant: 6.674e-11,
		ReferenceRadius:       6.957e8,
		ReferenceForce:        1.3e-9,
		Eccentricity:          0.05,
		GeomagneticBaseline:   2.0,
		Bodies: []Body{
			{Name: "mercury", Mass: 3.301e23, SemiMajorAxis: 5.791e10, OrbitalPeriod: 87.969},
			{Name: "venus", Mass: 4.867e24, SemiMajorAxis: 1.0821e11, OrbitalPeriod: 224.701},
			{Name: "earth", Mass: 5.972e24, SemiMajorAxis: 1.496e11, OrbitalPeriod: 365.256},
			{Name: "mars", Mass: 6.417e23, SemiMajorAxis: 2.2794e11, OrbitalPeriod: 686.980},
			{Name: "jupiter", Mass: 1.898e27, SemiMajorAxis: 7.7857e11, OrbitalPeriod: 4332.589},
			{Name: "saturn", Mass: 5.683e26, SemiMajorAxis: 1.4335e12, OrbitalPeriod: 10759.22},
			{Name: "uranus", Mass: 8.681e25, SemiMajorAxis: 2.8725e12, OrbitalPeriod: 30685.4},
			{Name: "neptune", Mass: 1.024e26, SemiMajorAxis: 4.4951e12, OrbitalPeriod: 60189.0},
		},
	}
}

// LoadTable reads a YAML constants file over DefaultTable: keys the file
// leaves out keep their built-in value, and a bodies list replaces the
// built-in planets. The result is validated.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, errors.Wrap(err, "read planet table")
	}

	t := DefaultTable()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, errors.Wrapf(err, "parse planet table %s", path)
	}
	if err := t.Validate(); err != nil {
		return Table{}, errors.Wrapf(err, "planet table %s", path)
	}
	return t, nil
}

// Validate rejects tables with missing, NaN, infinite or non-positive
// physical constants and duplicate body names.
func (t Table) Validate() error {
	for name, v := range map[string]float64{
		"gravitational_constant": t.GravitationalConstant,
		"reference_radius_m":     t.ReferenceRadius,
		"reference_force":        t.ReferenceForce,
	} {
		if !positive(v) {
			return common.InvalidArgument("%s must be positive, got %v", name, v)
		}
	}
	if math.IsNaN(t.Eccentricity) || t.Eccentricity < 0 || t.Eccentricity >= 1 {
		return common.InvalidArgument("eccentricity %v outside [0,1)", t.Eccentricity)
	}
	if math.IsNaN(t.GeomagneticBaseline) || t.GeomagneticBaseline < 0 || t.GeomagneticBaseline > 9 {
		return common.InvalidArgument("geomagnetic baseline %v outside the Kp range [0,9]", t.GeomagneticBaseline)
	}
	if len(t.Bodies) == 0 {
		return common.InvalidArgument("no bodies configured")
	}

	seen := make(map[string]bool, len(t.Bodies))
	for _, b := range t.Bodies {
		key := normalizeName(b.Name)
		if key == "" {
			return common.InvalidArgument("body with empty name")
		}
		if seen[key] {
			return common.InvalidArgument("duplicate body %q", b.Name)
		}
		seen[key] = true

		switch {
		case !positive(b.Mass):
			return common.InvalidArgument("body %s: mass must be positive, got %v", b.Name, b.Mass)
		case !positive(b.SemiMajorAxis):
			return common.InvalidArgument("body %s: semi-major axis must be positive, got %v", b.Name, b.SemiMajorAxis)
		case !positive(b.OrbitalPeriod):
			return common.InvalidArgument("body %s: orbital period must be positive, got %v", b.Name, b.OrbitalPeriod)
		}
	}
	return nil
}

func (t Table) clone() Table {
	c := t
	c.Bodies = append([]Body(nil), t.Bodies...)
	return c
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

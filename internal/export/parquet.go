// Package export writes FTRT snapshots and solar series to Parquet files.
package export

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/parquet-go/parquet-go"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

const readChunk = 1000

// SnapshotRecord is the flat Parquet layout of one FTRT day. Per-body forces
// are stored as parallel repeated columns sorted by body name.
type SnapshotRecord struct {
	Date            time.Time `parquet:"date,timestamp(millisecond)"`
	JulianDay       int32     `parquet:"julian_day"`
	TotalForce      float64   `parquet:"total_force"`
	NormalizedIndex float64   `parquet:"normalized_index"`
	DominantBody    string    `parquet:"dominant_body,dict"`
	DominantPct     float64   `parquet:"dominant_pct"`
	Alignment       float64   `parquet:"alignment"`
	Bodies          []string  `parquet:"bodies,list"`
	Forces          []float64 `parquet:"forces,list"`
}

// NewSnapshotRecord flattens s.
func NewSnapshotRecord(s tidal.Snapshot, alignment float64) SnapshotRecord {
	names := make([]string, 0, len(s.IndividualForces))
	for name := range s.IndividualForces {
		names = append(names, name)
	}
	sort.Strings(names)
	forces := make([]float64, len(names))
	for i, name := range names {
		forces[i] = s.IndividualForces[name]
	}

	return SnapshotRecord{
		Date:            s.Date.UTC(),
		JulianDay:       int32(s.JulianDay),
		TotalForce:      s.TotalForce,
		NormalizedIndex: s.NormalizedIndex,
		DominantBody:    s.DominantBody,
		DominantPct:     s.DominantForcePercentage,
		Alignment:       alignment,
		Bodies:          names,
		Forces:          forces,
	}
}

// Snapshot rebuilds the tidal snapshot.
func (r SnapshotRecord) Snapshot() tidal.Snapshot {
	forces := make(map[string]float64, len(r.Bodies))
	for i, name := range r.Bodies {
		if i < len(r.Forces) {
			forces[name] = r.Forces[i]
		}
	}
	return tidal.Snapshot{
		Date:                    solar.Day(r.Date),
		JulianDay:               int(r.JulianDay),
		IndividualForces:        forces,
		TotalForce:              r.TotalForce,
		NormalizedIndex:         r.NormalizedIndex,
		DominantBody:            r.DominantBody,
		DominantForcePercentage: r.DominantPct,
	}
}

// writeRows writes rows to a temp file next to path, then renames it into
// place so readers never see a partial file.
func writeRows[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create export dir")
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "create")
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "write rows")
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "close writer")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "close file")
	}
	return os.Rename(tmp, path)
}

func readRows[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat")
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "open parquet %s", filepath.Base(path))
	}

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	out := make([]T, 0, reader.NumRows())
	buf := make([]T, readChunk)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read rows")
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

// WriteSnapshots writes an FTRT series. alignment may be nil; otherwise it
// must match snaps in length.
func WriteSnapshots(path string, snaps []tidal.Snapshot, alignment []float64) error {
	if alignment != nil && len(alignment) != len(snaps) {
		return errors.Errorf("alignment length %d != snapshots %d", len(alignment), len(snaps))
	}
	rows := make([]SnapshotRecord, len(snaps))
	for i, s := range snaps {
		var a float64
		if alignment != nil {
			a = alignment[i]
		}
		rows[i] = NewSnapshotRecord(s, a)
	}
	return writeRows(path, rows)
}

// ReadSnapshots reads a file written by WriteSnapshots.
func ReadSnapshots(path string) ([]tidal.Snapshot, []float64, error) {
	rows, err := readRows[SnapshotRecord](path)
	if err != nil {
		return nil, nil, err
	}
	snaps := make([]tidal.Snapshot, len(rows))
	alignment := make([]float64, len(rows))
	for i, r := range rows {
		snaps[i] = r.Snapshot()
		alignment[i] = r.Alignment
	}
	return snaps, alignment, nil
}

// WriteSeries writes a solar series.
func WriteSeries(path string, s solar.Series) error {
	rows := make([]solar.TimePoint, len(s))
	for i, p := range s {
		rows[i] = solar.TimePoint{Date: p.Date.UTC(), Value: p.Value}
	}
	return writeRows(path, rows)
}

// ReadSeries reads a file written by WriteSeries. Dates come back in UTC.
func ReadSeries(path string) (solar.Series, error) {
	rows, err := readRows[solar.TimePoint](path)
	if err != nil {
		return nil, err
	}
	s := solar.Series(rows)
	for i := range s {
		s[i].Date = s[i].Date.UTC()
	}
	return s, nil
}

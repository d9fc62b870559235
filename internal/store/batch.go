// Package store persists solar indices and FTRT snapshots in ClickHouse.
//
// Inserts go through ch-go with columnar batches; reads go through
// clickhouse-go so rows can be scanned straight into the ch-tagged structs.
package store

import (
	"time"

	"github.com/ClickHouse/ch-go/proto"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

// BatchLimit is the row count at which writers flush (~6250 GFZ days).
const BatchLimit = 50000

// IndexBatch holds columnar data for native ClickHouse insert.
// Matches schema: solar.indices_raw (date, time, observed_flux, adjusted_flux,
// ssn, kp_index, ap_index, source_file)
type IndexBatch struct {
	Date         *proto.ColDate32
	Time         *proto.ColDateTime
	ObservedFlux *proto.ColFloat32
	AdjustedFlux *proto.ColFloat32
	SSN          *proto.ColFloat32
	KpIndex      *proto.ColFloat32
	ApIndex      *proto.ColFloat32
	SourceFile   *proto.ColStr
}

func NewIndexBatch() *IndexBatch {
	return &IndexBatch{
		Date:         new(proto.ColDate32),
		Time:         new(proto.ColDateTime),
		ObservedFlux: new(proto.ColFloat32),
		AdjustedFlux: new(proto.ColFloat32),
		SSN:          new(proto.ColFloat32),
		KpIndex:      new(proto.ColFloat32),
		ApIndex:      new(proto.ColFloat32),
		SourceFile:   new(proto.ColStr),
	}
}

func (b *IndexBatch) Reset() {
	b.Date.Reset()
	b.Time.Reset()
	b.ObservedFlux.Reset()
	b.AdjustedFlux.Reset()
	b.SSN.Reset()
	b.KpIndex.Reset()
	b.ApIndex.Reset()
	b.SourceFile.Reset()
}

func (b *IndexBatch) Len() int {
	return b.Date.Rows()
}

func (b *IndexBatch) Input() proto.Input {
	return proto.Input{
		{Name: "date", Data: b.Date},
		{Name: "time", Data: b.Time},
		{Name: "observed_flux", Data: b.ObservedFlux},
		{Name: "adjusted_flux", Data: b.AdjustedFlux},
		{Name: "ssn", Data: b.SSN},
		{Name: "kp_index", Data: b.KpIndex},
		{Name: "ap_index", Data: b.ApIndex},
		{Name: "source_file", Data: b.SourceFile},
	}
}

// Add appends one row. A zero Time falls back to Date.
func (b *IndexBatch) Add(ix solar.Index) {
	ts := ix.Time
	if ts.IsZero() {
		ts = ix.Date
	}
	b.Date.Append(ix.Date)
	b.Time.Append(ts)
	b.ObservedFlux.Append(ix.ObservedFlux)
	b.AdjustedFlux.Append(ix.AdjustedFlux)
	b.SSN.Append(ix.SSN)
	b.KpIndex.Append(ix.KpIndex)
	b.ApIndex.Append(ix.ApIndex)
	b.SourceFile.Append(ix.SourceFile)
}

// SnapshotBatch holds columnar FTRT snapshots.
// Matches schema: solar.ftrt_daily (date, julian_day, total_force,
// normalized_index, dominant_body, dominant_pct, alignment, forces)
type SnapshotBatch struct {
	Date            *proto.ColDate32
	JulianDay       *proto.ColUInt32
	TotalForce      *proto.ColFloat64
	NormalizedIndex *proto.ColFloat64
	DominantBody    *proto.ColStr
	DominantPct     *proto.ColFloat64
	Alignment       *proto.ColFloat64
	Forces          *proto.ColMap[string, float64]
}

func NewSnapshotBatch() *SnapshotBatch {
	return &SnapshotBatch{
		Date:            new(proto.ColDate32),
		JulianDay:       new(proto.ColUInt32),
		TotalForce:      new(proto.ColFloat64),
		NormalizedIndex: new(proto.ColFloat64),
		DominantBody:    new(proto.ColStr),
		DominantPct:     new(proto.ColFloat64),
		Alignment:       new(proto.ColFloat64),
		Forces:          proto.NewMap[string, float64](new(proto.ColStr), new(proto.ColFloat64)),
	}
}

func (b *SnapshotBatch) Reset() {
	b.Date.Reset()
	b.JulianDay.Reset()
	b.TotalForce.Reset()
	b.NormalizedIndex.Reset()
	b.DominantBody.Reset()
	b.DominantPct.Reset()
	b.Alignment.Reset()
	b.Forces.Reset()
}

func (b *SnapshotBatch) Len() int {
	return b.Date.Rows()
}

func (b *SnapshotBatch) Input() proto.Input {
	return proto.Input{
		{Name: "date", Data: b.Date},
		{Name: "julian_day", Data: b.JulianDay},
		{Name: "total_force", Data: b.TotalForce},
		{Name: "normalized_index", Data: b.NormalizedIndex},
		{Name: "dominant_body", Data: b.DominantBody},
		{Name: "dominant_pct", Data: b.DominantPct},
		{Name: "alignment", Data: b.Alignment},
		{Name: "forces", Data: b.Forces},
	}
}

// Add appends one snapshot with its alignment score.
func (b *SnapshotBatch) Add(s tidal.Snapshot, alignment float64) {
	b.Date.Append(s.Date)
	b.JulianDay.Append(uint32(s.JulianDay))
	b.TotalForce.Append(s.TotalForce)
	b.NormalizedIndex.Append(s.NormalizedIndex)
	b.DominantBody.Append(s.DominantBody)
	b.DominantPct.Append(s.DominantForcePercentage)
	b.Alignment.Append(alignment)
	b.Forces.Append(s.IndividualForces)
}

// SnapshotRow is one row of the FTRT table as read back.
type SnapshotRow struct {
	Date            time.Time          `ch:"date"`
	JulianDay       uint32             `ch:"julian_day"`
	TotalForce      float64            `ch:"total_force"`
	NormalizedIndex float64            `ch:"normalized_index"`
	DominantBody    string             `ch:"dominant_body"`
	DominantPct     float64            `ch:"dominant_pct"`
	Alignment       float64            `ch:"alignment"`
	Forces          map[string]float64 `ch:"forces"`
}

// Snapshot converts the row back to a tidal.Snapshot.
func (r SnapshotRow) Snapshot() tidal.Snapshot {
	return tidal.Snapshot{
		Date:                    solar.Day(r.Date),
		JulianDay:               int(r.JulianDay),
		IndividualForces:        r.Forces,
		TotalForce:              r.TotalForce,
		NormalizedIndex:         r.NormalizedIndex,
		DominantBody:            r.DominantBody,
		DominantForcePercentage: r.DominantPct,
	}
}

// SnapshotsFromRows converts read-back rows into snapshots and their
// alignment scores, in row order.
func SnapshotsFromRows(rows []SnapshotRow) ([]tidal.Snapshot, []float64) {
	snaps := make([]tidal.Snapshot, len(rows))
	alignment := make([]float64, len(rows))
	for i, row := range rows {
		snaps[i] = row.Snapshot()
		alignment[i] = row.Alignment
	}
	return snaps, alignment
}

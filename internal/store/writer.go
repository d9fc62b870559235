package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ClickHouse/ch-go"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// TableFQN joins database and table after checking both are plain
// identifiers. A table that already carries a database is returned as is.
func TableFQN(database, table string) (string, error) {
	fqn := table
	if !strings.Contains(table, ".") && database != "" {
		fqn = database + "." + table
	}
	if !identRe.MatchString(fqn) {
		return "", common.InvalidArgument("bad table name %q", fqn)
	}
	return fqn, nil
}

const indexColumns = "date, time, observed_flux, adjusted_flux, ssn, kp_index, ap_index, source_file"

const snapshotColumns = "date, julian_day, total_force, normalized_index, dominant_body, dominant_pct, alignment, forces"

// IndicesDDL creates the raw index table. ReplacingMergeTree(updated_at) on
// (date, time) handles re-ingest of overlapping files.
func IndicesDDL(fqn string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    date          Date32,
    time          DateTime,
    observed_flux Float32,
    adjusted_flux Float32,
    ssn           Float32,
    kp_index      Float32,
    ap_index      Float32,
    source_file   LowCardinality(String),
    updated_at    DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY (date, time)`, fqn)
}

// SnapshotsDDL creates the FTRT table, one row per day.
func SnapshotsDDL(fqn string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    date             Date32,
    julian_day       UInt32,
    total_force      Float64,
    normalized_index Float64,
    dominant_body    LowCardinality(String),
    dominant_pct     Float64,
    alignment        Float64,
    forces           Map(String, Float64),
    updated_at       DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY date`, fqn)
}

// Writer inserts rows over the native protocol.
type Writer struct {
	conn     *ch.Client
	database string
	log      *zap.SugaredLogger
}

// Dial connects to the native endpoint named by cfg.
func Dial(ctx context.Context, cfg *common.Config, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := ch.Dial(ctx, ch.Options{
		Address:     cfg.ClickHouseAddr(),
		Database:    cfg.ClickHouseDatabase,
		User:        cfg.ClickHouseUser,
		Password:    cfg.ClickHousePassword,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "dial clickhouse %s", cfg.ClickHouseAddr())
	}
	return &Writer{conn: conn, database: cfg.ClickHouseDatabase, log: logger.Named("store").Sugar()}, nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

func (w *Writer) exec(ctx context.Context, body string) error {
	return w.conn.Do(ctx, ch.Query{Body: body})
}

// EnsureTables creates the indices and FTRT tables when missing.
func (w *Writer) EnsureTables(ctx context.Context, indicesTable, ftrtTable string) error {
	if indicesTable != "" {
		fqn, err := TableFQN(w.database, indicesTable)
		if err != nil {
			return err
		}
		if err := w.exec(ctx, IndicesDDL(fqn)); err != nil {
			return errors.Wrapf(err, "create %s", fqn)
		}
	}
	if ftrtTable != "" {
		fqn, err := TableFQN(w.database, ftrtTable)
		if err != nil {
			return err
		}
		if err := w.exec(ctx, SnapshotsDDL(fqn)); err != nil {
			return errors.Wrapf(err, "create %s", fqn)
		}
	}
	return nil
}

// Truncate empties table.
func (w *Writer) Truncate(ctx context.Context, table string) error {
	fqn, err := TableFQN(w.database, table)
	if err != nil {
		return err
	}
	w.log.Infof("Truncating %s", fqn)
	return w.exec(ctx, "TRUNCATE TABLE "+fqn)
}

// InsertIndices writes rows in BatchLimit chunks and returns the count
// inserted. On cancellation it returns what was flushed so far.
func (w *Writer) InsertIndices(ctx context.Context, table string, rows []solar.Index) (int, error) {
	fqn, err := TableFQN(w.database, table)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES", fqn, indexColumns)

	batch := NewIndexBatch()
	inserted := 0
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := w.conn.Do(ctx, ch.Query{Body: query, Input: batch.Input()}); err != nil {
			return errors.Wrapf(err, "insert at row %d", inserted)
		}
		inserted += batch.Len()
		w.log.Debugf("Inserted %d / %d rows into %s", inserted, len(rows), fqn)
		batch.Reset()
		return nil
	}

	for _, ix := range rows {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		batch.Add(ix)
		if batch.Len() >= BatchLimit {
			if err := flush(); err != nil {
				return inserted, err
			}
		}
	}
	err = flush()
	return inserted, err
}

// InsertSnapshots writes an FTRT series. alignment may be nil or must match
// snaps in length.
func (w *Writer) InsertSnapshots(ctx context.Context, table string, snaps []tidal.Snapshot, alignment []float64) (int, error) {
	if alignment != nil && len(alignment) != len(snaps) {
		return 0, common.InvalidArgument("alignment length %d != snapshots %d", len(alignment), len(snaps))
	}
	fqn, err := TableFQN(w.database, table)
	if err != nil {
		return 0, err
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	batch := NewSnapshotBatch()
	for i, s := range snaps {
		var a float64
		if alignment != nil {
			a = alignment[i]
		}
		batch.Add(s, a)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES", fqn, snapshotColumns)
	if err := w.conn.Do(ctx, ch.Query{Body: query, Input: batch.Input()}); err != nil {
		return 0, errors.Wrapf(err, "insert snapshots into %s", fqn)
	}
	return batch.Len(), nil
}

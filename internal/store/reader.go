package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-faster/errors"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

// Reader runs analysis queries.
type Reader struct {
	conn     driver.Conn
	database string
}

// Open connects with clickhouse-go and pings the server.
func Open(ctx context.Context, cfg *common.Config) (*Reader, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.ClickHouseAddr()},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open clickhouse")
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "ping clickhouse %s", cfg.ClickHouseAddr())
	}
	return &Reader{conn: conn, database: cfg.ClickHouseDatabase}, nil
}

func (r *Reader) Close() error {
	return r.conn.Close()
}

// DailySeriesQuery builds the per-day aggregation of one field over
// [from, to]. Negative values mark missing data and are skipped, so a real
// zero (a quiet Kp day) is kept.
func DailySeriesQuery(fqn, field string, agg solar.Aggregate) (string, error) {
	if !solar.ValidField(field) {
		return "", common.InvalidArgument("unknown solar field %q", field)
	}
	fn := "avg"
	if agg == solar.AggMax {
		fn = "max"
	}
	return fmt.Sprintf(
		"SELECT date, toFloat64(%s(%s)) AS value FROM %s FINAL WHERE date BETWEEN ? AND ? AND %s >= 0 GROUP BY date ORDER BY date",
		fn, field, fqn, field,
	), nil
}

// DailySeries loads one field as a daily series.
func (r *Reader) DailySeries(ctx context.Context, table, field string, agg solar.Aggregate, from, to time.Time) (solar.Series, error) {
	fqn, err := TableFQN(r.database, table)
	if err != nil {
		return nil, err
	}
	query, err := DailySeriesQuery(fqn, field, agg)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, query, solar.Day(from), solar.Day(to))
	if err != nil {
		return nil, errors.Wrapf(err, "query %s.%s", fqn, field)
	}
	defer rows.Close()

	var out solar.Series
	for rows.Next() {
		var p solar.TimePoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		p.Date = solar.Day(p.Date)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SnapshotsQuery selects a stored FTRT series over a date range.
func SnapshotsQuery(fqn string) string {
	return fmt.Sprintf("SELECT %s FROM %s FINAL WHERE date BETWEEN ? AND ? ORDER BY date", snapshotColumns, fqn)
}

// Snapshots loads a stored FTRT series over [from, to] with its alignment
// scores.
func (r *Reader) Snapshots(ctx context.Context, table string, from, to time.Time) ([]tidal.Snapshot, []float64, error) {
	fqn, err := TableFQN(r.database, table)
	if err != nil {
		return nil, nil, err
	}
	var rows []SnapshotRow
	if err := r.conn.Select(ctx, &rows, SnapshotsQuery(fqn), solar.Day(from), solar.Day(to)); err != nil {
		return nil, nil, errors.Wrapf(err, "select %s", fqn)
	}
	snaps, alignment := SnapshotsFromRows(rows)
	return snaps, alignment, nil
}

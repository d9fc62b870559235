// ftrt-series - Compute the planetary tidal index (FTRT) over a date range
//
// Evaluates the simplified Kepler tidal model for each day, flags index
// peaks, and writes the series to Parquet and optionally ClickHouse.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/ftrt-series ./cmd/ftrt-series

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/correlation"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/export"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/stats"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/store"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

var Version = "1.0.0"

// synodicPairs are reported when both bodies are in the table.
var synodicPairs = [][2]string{
	{"venus", "earth"},
	{"earth", "jupiter"},
	{"jupiter", "saturn"},
}

func loadTable(path string) (tidal.Table, error) {
	if path == "" {
		return tidal.DefaultTable(), nil
	}
	return tidal.LoadTable(path)
}

// strongestCycle returns the lag > 0 with the largest autocorrelation that is
// also a local maximum, 0 when there is none.
func strongestCycle(acf []float64) (int, float64) {
	best, bestV := 0, 0.0
	for k := 2; k < len(acf)-1; k++ {
		if acf[k] > acf[k-1] && acf[k] > acf[k+1] && acf[k] > bestV {
			best, bestV = k, acf[k]
		}
	}
	return best, bestV
}

// progressStep is how many scores a worker computes between progress updates.
const progressStep = 256

// alignmentScores evaluates AlignmentScore for every snapshot, one chunk of
// the series per worker. Completed scores are counted on progress as they
// finish; progress may be nil.
func alignmentScores(ctx context.Context, c *tidal.Calculator, series []tidal.Snapshot, workers int, progress *common.Progress) ([]float64, error) {
	out := make([]float64, len(series))
	if workers < 1 {
		workers = 1
	}
	chunk := (len(series) + workers - 1) / workers
	if chunk == 0 {
		return out, nil
	}
	count := func(n int) {
		if progress != nil && n > 0 {
			progress.AddSnapshots(uint64(n))
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(series); lo += chunk {
		hi := min(lo+chunk, len(series))
		g.Go(func() error {
			pending := 0
			for i := lo; i < hi; i++ {
				if pending == progressStep {
					count(pending)
					pending = 0
					if ctx.Err() != nil {
						return ctx.Err()
					}
				}
				out[i] = c.AlignmentScore(series[i].Date)
				pending++
			}
			count(pending)
			return ctx.Err()
		})
	}
	return out, g.Wait()
}

func report(c *tidal.Calculator, series []tidal.Snapshot, peaks []tidal.Peak, log *zap.SugaredLogger) {
	values := tidal.Values(series)
	sum := stats.Describe(values)
	log.Infof("Index:   mean %.3f  median %.3f  sd %.3f  range %.3f - %.3f", sum.Mean, sum.Median, sum.StdDev, sum.Min, sum.Max)

	dominant := make(map[string]int)
	for _, s := range series {
		dominant[s.DominantBody]++
	}
	for _, b := range c.Table().Bodies {
		if n := dominant[b.Name]; n > 0 {
			log.Infof("  %-8s dominant on %d days (%.1f%%)", b.Name, n, 100*float64(n)/float64(len(series)))
		}
	}

	if acf, err := correlation.Autocorrelation(values, len(values)/2); err == nil {
		if lag, r := strongestCycle(acf); lag > 0 {
			log.Infof("Cycle:   strongest autocorrelation at %d samples (r=%.3f)", lag, r)
		}
	}

	for _, p := range synodicPairs {
		if period, err := c.SynodicPeriod(p[0], p[1]); err == nil {
			log.Infof("Synodic: %s-%s %.1f days", p[0], p[1], period)
		}
	}

	log.Infof("Peaks:   %d", len(peaks))
	for _, p := range peaks {
		log.Infof("  %s  %.3f  %-8s  alignment %.2f", p.Date.Format("2006-01-02"), p.Value, p.Significance, c.AlignmentScore(p.Date))
	}
}

func main() {
	cfg, err := common.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	startStr := flag.String("start", time.Now().UTC().AddDate(-1, 0, 0).Format("2006-01-02"), "Start date (YYYY-MM-DD)")
	endStr := flag.String("end", "", "End date (default: today)")
	step := flag.Int("step", 1, "Step in days")
	tablePath := flag.String("table", cfg.PlanetTable, "Planet constants YAML (default: built-in)")
	threshold := flag.Float64("threshold", cfg.PeakThreshold, "Peak threshold on the normalized index")
	out := flag.String("out", "", "Parquet output path (default: <data-dir>/ftrt/ftrt_<start>_<end>.parquet)")
	noParquet := flag.Bool("no-parquet", false, "Skip Parquet output")
	toCH := flag.Bool("clickhouse", false, "Insert the series into ClickHouse")
	chTable := flag.String("ch-table", cfg.FTRTTable, "ClickHouse FTRT table")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ftrt-series v%s - Planetary Tidal Index Series\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -start 2000-01-01 -end 2030-12-31\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -table planets.yaml -threshold 0.8 -clickhouse\n", os.Args[0])
	}
	flag.Parse()

	logger := common.MustLogger(cfg.LogLevel)
	log := logger.Sugar()

	r := runner{
		cfg:       cfg,
		logger:    logger,
		startStr:  *startStr,
		endStr:    *endStr,
		step:      *step,
		tablePath: *tablePath,
		threshold: *threshold,
		out:       *out,
		noParquet: *noParquet,
		toCH:      *toCH,
		chTable:   *chTable,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = r.run(ctx)
	cancel()
	if err != nil {
		log.Errorf("Error: %v", err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// runner holds the parsed flags for one invocation.
type runner struct {
	cfg    *common.Config
	logger *zap.Logger

	startStr, endStr string
	step             int
	tablePath        string
	threshold        float64
	out              string
	noParquet, toCH  bool
	chTable          string
}

func (r *runner) run(ctx context.Context) error {
	log := r.logger.Sugar()
	log.Info("=========================================================")
	log.Infof("ftrt-series v%s", Version)
	log.Info("=========================================================")

	start, err := time.Parse("2006-01-02", r.startStr)
	if err != nil {
		return errors.Wrap(err, "invalid start date")
	}
	end := time.Now().UTC()
	if r.endStr != "" {
		if end, err = time.Parse("2006-01-02", r.endStr); err != nil {
			return errors.Wrap(err, "invalid end date")
		}
	}

	table, err := loadTable(r.tablePath)
	if err != nil {
		return errors.Wrap(err, "planet table")
	}
	calc, err := tidal.NewCalculator(table, r.logger)
	if err != nil {
		return errors.Wrap(err, "planet table")
	}
	log.Infof("Bodies:  %d, reference force %.3g N/kg", len(table.Bodies), table.ReferenceForce)

	t0 := time.Now()
	series, err := calc.TimeSeries(start, end, r.step)
	if err != nil {
		return errors.Wrap(err, "series")
	}
	if len(series) == 0 {
		return common.InvalidArgument("empty date range %s to %s", r.startStr, r.endStr)
	}

	progress := common.NewProgress(r.logger)
	progress.Start()
	alignment, err := alignmentScores(ctx, calc, series, runtime.NumCPU(), progress)
	progress.Stop()
	if err != nil {
		return errors.Wrap(err, "alignment")
	}

	log.Infof("Computed %d snapshots (%s to %s, step %dd) in %v",
		progress.Snapshots(), series[0].Date.Format("2006-01-02"), series[len(series)-1].Date.Format("2006-01-02"),
		r.step, time.Since(t0).Round(time.Millisecond))

	peaks := tidal.DetectPeaks(series, r.threshold)
	report(calc, series, peaks, log)

	if !r.noParquet {
		path := r.out
		if path == "" {
			path = filepath.Join(r.cfg.ExportDir(), fmt.Sprintf("ftrt_%s_%s.parquet",
				series[0].Date.Format("20060102"), series[len(series)-1].Date.Format("20060102")))
		}
		if err := export.WriteSnapshots(path, series, alignment); err != nil {
			return errors.Wrap(err, "parquet")
		}
		log.Infof("Wrote %s", path)
	}

	if r.toCH {
		log.Infof("Connecting to ClickHouse at %s...", r.cfg.ClickHouseAddr())
		w, err := store.Dial(ctx, r.cfg, r.logger)
		if err != nil {
			return errors.Wrap(err, "clickhouse connection")
		}
		defer w.Close()
		if err := w.EnsureTables(ctx, "", r.chTable); err != nil {
			return errors.Wrap(err, "create table")
		}
		n, err := w.InsertSnapshots(ctx, r.chTable, series, alignment)
		if err != nil {
			return errors.Wrap(err, "insert")
		}
		log.Infof("Inserted %d snapshots into %s", n, r.chTable)
	}

	log.Info("=========================================================")
	return nil
}

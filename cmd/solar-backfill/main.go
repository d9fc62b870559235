// solar-backfill - Historical solar index backfill from GFZ Potsdam
//
// Downloads the definitive Kp/ap/Ap/SN/F10.7 dataset from GFZ Potsdam
// and inserts into ClickHouse solar.indices_raw with 3-hour bucketing.
//
// Source: https://kp.gfz-potsdam.de (Helmholtz Centre Potsdam, GFZ)
// Format: Daily SSN + F10.7 (SFI) + 8x 3-hourly Kp/ap values per day
//
// Each day produces 8 rows (one per 3-hour bucket: 00, 03, 06, ..., 21 UTC).
// SSN and SFI are replicated across all 8 buckets; Kp/ap are bucket-specific.
// ReplacingMergeTree(updated_at) on (date, time) handles deduplication.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-backfill ./cmd/solar-backfill

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/analysis"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/stats"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/store"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/tidal"
)

var Version = "1.1.0"

const sourceTag = "gfz-kp-backfill"

func loadDays(ctx context.Context, localFile string, timeout time.Duration, start, end time.Time, log *zap.SugaredLogger) ([]solar.GFZDay, error) {
	if localFile != "" {
		log.Infof("Reading local file: %s", localFile)
		rc, err := solar.OpenSource(localFile)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return solar.ParseGFZ(rc, start, end)
	}

	log.Info("Downloading from GFZ Potsdam...")
	log.Infof("  URL: %s", solar.GFZURL)
	return solar.NewFetcher(timeout).FetchGFZ(ctx, solar.GFZURL, start, end)
}

// coverage logs the range of each index over days with data.
func coverage(days []solar.GFZDay, baseline float64, log *zap.SugaredLogger) {
	var sfi, ssn []float64
	var kp solar.Series
	for _, d := range days {
		if d.SFIObs >= 0 {
			sfi = append(sfi, float64(d.SFIObs))
		}
		if d.SSN >= 0 {
			ssn = append(ssn, float64(d.SSN))
		}
		for i, v := range d.Kp {
			if v < 0 {
				continue
			}
			kp = append(kp, solar.TimePoint{
				Date:  d.Date.Add(time.Duration(solar.BucketHours[i]) * time.Hour),
				Value: float64(v),
			})
		}
	}

	log.Infof("Coverage (%s to %s):", days[0].Date.Format("2006-01-02"), days[len(days)-1].Date.Format("2006-01-02"))
	if len(ssn) > 0 {
		log.Infof("  SSN: %d days with data (%.0f - %.0f)", len(ssn), stats.Min(ssn), stats.Max(ssn))
	} else {
		log.Info("  SSN: no data")
	}
	if len(sfi) > 0 {
		log.Infof("  SFI: %d days with data (%.1f - %.1f SFU)", len(sfi), stats.Min(sfi), stats.Max(sfi))
	} else {
		log.Info("  SFI: no data")
	}
	s := analysis.SummarizeKp(kp, baseline, analysis.KpStormMinor)
	log.Infof("  Kp:  peak %.1f, %d storm days (Kp>=%.0f), %d quiet days (Kp<=%.1f)",
		s.PeakKp, s.StormDays, analysis.KpStormMinor, s.QuietDays, baseline)
}

func main() {
	cfg, err := common.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	chHost := flag.String("ch-host", cfg.ClickHouseAddr(), "ClickHouse native protocol address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", cfg.IndicesTable, "ClickHouse table")
	startStr := flag.String("start", "2020-01-01", "Start date (YYYY-MM-DD)")
	endStr := flag.String("end", "", "End date (default: today)")
	localFile := flag.String("file", "", "Local GFZ file, optionally .gz/.zst (skip download)")
	dryRun := flag.Bool("dry-run", false, "Parse only, no ClickHouse insert")
	httpTimeout := flag.Int("timeout", 120, "HTTP download timeout (seconds)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-backfill v%s - Historical Solar Index Backfill (GFZ Potsdam)\n\n", Version)
		fmt.Fprintf(os.Stderr, "Downloads SSN, SFI (F10.7), and 3-hourly Kp/ap from GFZ Potsdam\n")
		fmt.Fprintf(os.Stderr, "and inserts into ClickHouse solar.indices_raw.\n\n")
		fmt.Fprintf(os.Stderr, "Source: %s\n\n", solar.GFZURL)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -ch-host 192.168.1.90:9000 -start 2020-01-01\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -file /tmp/Kp_ap_Ap_SN_F107_since_1932.txt -dry-run\n", os.Args[0])
	}
	flag.Parse()

	logger := common.MustLogger(cfg.LogLevel)
	defer logger.Sync()
	log := logger.Sugar()

	log.Info("=========================================================")
	log.Infof("solar-backfill v%s - GFZ Potsdam Solar Index Backfill", Version)
	log.Info("=========================================================")

	startDate, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	endDate := solar.Day(time.Now())
	if *endStr != "" {
		endDate, err = time.Parse("2006-01-02", *endStr)
		if err != nil {
			log.Fatalf("Invalid end date: %v", err)
		}
	}
	log.Infof("Date range: %s to %s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	t0 := time.Now()
	days, err := loadDays(ctx, *localFile, time.Duration(*httpTimeout)*time.Second, startDate, endDate, log)
	if err != nil {
		log.Fatalf("Load error: %v", err)
	}
	log.Infof("Parsed %d days in %v", len(days), time.Since(t0).Round(time.Millisecond))

	if len(days) == 0 {
		log.Fatal("No data found in date range")
	}

	baseline := tidal.DefaultTable().GeomagneticBaseline
	if cfg.PlanetTable != "" {
		if t, err := tidal.LoadTable(cfg.PlanetTable); err == nil {
			baseline = t.GeomagneticBaseline
		} else {
			log.Warnf("Planet table %s: %v (using built-in baseline)", cfg.PlanetTable, err)
		}
	}
	coverage(days, baseline, log)

	rows := make([]solar.Index, 0, len(days)*len(solar.BucketHours))
	for _, d := range days {
		rows = append(rows, d.Indices(sourceTag)...)
	}
	log.Infof("Will insert: %d rows (%d days x 8 buckets)", len(rows), len(days))

	if *dryRun {
		log.Info("Dry run, skipping ClickHouse insert")
		return
	}

	cfg.ClickHouseDatabase = *chDB
	if err := cfg.SetClickHouseAddr(*chHost); err != nil {
		log.Fatalf("Bad -ch-host: %v", err)
	}
	log.Infof("Connecting to ClickHouse at %s...", cfg.ClickHouseAddr())
	w, err := store.Dial(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer w.Close()

	t0 = time.Now()
	inserted, err := w.InsertIndices(ctx, *chTable, rows)
	if err != nil {
		log.Fatalf("Insert error after %d rows: %v", inserted, err)
	}

	elapsed := time.Since(t0)
	rps := float64(inserted) / elapsed.Seconds()

	log.Info("=========================================================")
	log.Info("Backfill Complete")
	log.Info("=========================================================")
	log.Infof("Days:    %d (%s to %s)", len(days), days[0].Date.Format("2006-01-02"), days[len(days)-1].Date.Format("2006-01-02"))
	log.Infof("Rows:    %d (8 per day)", inserted)
	log.Infof("Elapsed: %v", elapsed.Round(time.Millisecond))
	log.Infof("Rate:    %.0f rows/sec", rps)
	log.Infof("Source:  %s", sourceTag)
	log.Info("=========================================================")
	log.Infof("Run OPTIMIZE TABLE %s.%s FINAL to merge duplicates.", *chDB, *chTable)
}

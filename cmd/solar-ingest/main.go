// solar-ingest - Solar and geomagnetic index ingestion into ClickHouse
//
// Supports multiple solar data formats, plain or compressed (.gz, .zst):
//   - SIDC CSV (sidc_*.csv): Daily sunspot numbers from SILSO
//   - SFI JSON (*flux*.txt|json): NOAA solar flux indices
//   - NOAA Kp JSON (*k-index*.json): 3-hourly planetary K-index
//   - GFZ text (Kp_ap_Ap_SN_F107_*.txt): definitive Kp/ap/SN/F10.7
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-ingest ./cmd/solar-ingest

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KI7MT/ki7mt-ftrt-lab/internal/common"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/solar"
	"github.com/KI7MT/ki7mt-ftrt-lab/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "2.1.0"

func discover(args []string, sourceDir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(sourceDir, e.Name()))
		}
	}
	return files, nil
}

func main() {
	cfg, err := common.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	chHost := flag.String("ch-host", cfg.ClickHouseAddr(), "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", cfg.IndicesTable, "ClickHouse table")
	sourceDir := flag.String("source-dir", cfg.SolarDataDir(), "Solar data source directory")
	truncate := flag.Bool("truncate", false, "Truncate table before insert")
	create := flag.Bool("create", false, "Create the table if missing")
	dryRun := flag.Bool("dry-run", false, "Parse only, no ClickHouse insert")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-ingest v%s - Solar Flux Data Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [files...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ingests solar and geomagnetic data from NOAA/SIDC/GFZ sources into ClickHouse.\n\n")
		fmt.Fprintf(os.Stderr, "Supported formats (optionally .gz or .zst):\n")
		fmt.Fprintf(os.Stderr, "  - SIDC CSV (sidc_*.csv): Daily sunspot numbers\n")
		fmt.Fprintf(os.Stderr, "  - SFI JSON (sfi_daily_flux.txt): NOAA solar flux indices\n")
		fmt.Fprintf(os.Stderr, "  - Kp JSON (noaa_kp_index.json): NOAA planetary K-index\n")
		fmt.Fprintf(os.Stderr, "  - GFZ (Kp_ap_Ap_SN_F107_since_1932.txt): 3-hourly Kp/ap with SN and F10.7\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	logger := common.MustLogger(cfg.LogLevel)
	defer logger.Sync()
	log := logger.Sugar()

	log.Info("=========================================================")
	log.Infof("Solar Ingest v%s", Version)
	log.Info("=========================================================")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	files, err := discover(flag.Args(), *sourceDir)
	if err != nil {
		log.Fatalf("Cannot read source directory: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("No files to process")
	}
	log.Infof("Found %d file(s)", len(files))

	progress := common.NewProgress(logger)
	progress.Start()

	startTime := time.Now()
	var rows []solar.Index

	for _, filePath := range files {
		if ctx.Err() != nil {
			break
		}
		name := filepath.Base(filePath)

		parsed, format, err := solar.ParseFile(filePath)
		if err != nil {
			log.Errorf("[%s] Parse error: %v", name, err)
			continue
		}
		if format == solar.FormatUnknown {
			log.Infof("[%s] Skipping (unknown format)", name)
			continue
		}

		progress.AddBytes(uint64(solar.FileSize(filePath)))
		progress.AddRecords(uint64(len(parsed)))
		rows = append(rows, parsed...)
		log.Infof("[%s] Parsed %d records (%s format)", name, len(parsed), format)
	}
	progress.Stop()

	inserted := 0
	if *dryRun {
		log.Info("Dry run, skipping ClickHouse insert")
	} else if len(rows) > 0 {
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

		if *create {
			if err := w.EnsureTables(ctx, *chTable, ""); err != nil {
				log.Fatalf("Create table failed: %v", err)
			}
		}
		if *truncate {
			if err := w.Truncate(ctx, *chTable); err != nil {
				log.Warnf("Truncate warning: %v", err)
			}
		}

		inserted, err = w.InsertIndices(ctx, *chTable, rows)
		if err != nil {
			log.Fatalf("Insert error after %d rows: %v", inserted, err)
		}
		log.Infof("Inserted %d records", inserted)
	}

	elapsed := time.Since(startTime)

	log.Info("=========================================================")
	log.Info("Final Statistics")
	log.Info("=========================================================")
	log.Infof("Total Records: %d", progress.Records())
	log.Infof("Inserted:      %d", inserted)
	log.Infof("Read:          %.2f MiB", float64(progress.Bytes())/(1024*1024))
	log.Infof("Elapsed:       %v", elapsed.Round(time.Millisecond))
	log.Infof("Rate:          %.0f records/sec", float64(progress.Records())/elapsed.Seconds())
	log.Info("=========================================================")
}

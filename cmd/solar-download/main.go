// solar-download - Download solar and geomagnetic data from NOAA, SIDC and GFZ
//
// Data sources:
//   - SIDC SILSO: Daily sunspot numbers from Royal Observatory of Belgium
//   - NOAA SWPC: Solar cycle indices and planetary K-index
//   - GFZ Potsdam: Definitive Kp/ap/SN/F10.7 since 1932
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-download ./cmd/solar-download

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
)

// Version can be overridden at build time via -ldflags
var Version = "2.1.0"

func main() {
	cfg, err := common.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	destDir := flag.String("dest", cfg.SolarDataDir(), "Destination directory")
	timeout := flag.Duration("timeout", 60*time.Second, "HTTP timeout per download")
	listSources := flag.Bool("list", false, "List available data sources")
	source := flag.String("source", "all", "Source to download (or 'all')")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-download v%s - Solar Data Downloader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Downloads solar flux and geomagnetic data from NOAA, SIDC and GFZ.\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nData Sources:\n")
		for _, s := range solar.Sources {
			fmt.Fprintf(os.Stderr, "  %-15s %s\n", s.Name, s.Desc)
		}
	}

	flag.Parse()

	if *listSources {
		fmt.Printf("Available solar data sources:\n\n")
		for _, s := range solar.Sources {
			fmt.Printf("  %-15s %s\n", s.Name, s.Desc)
			fmt.Printf("                  URL: %s\n", s.URL)
			fmt.Printf("                  File: %s\n\n", s.Filename)
		}
		return
	}

	if *source != "all" {
		if _, ok := solar.SourceByName(*source); !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown source %q (see -list)\n", *source)
			os.Exit(2)
		}
	}

	logger := common.MustLogger(cfg.LogLevel)
	defer logger.Sync()
	log := logger.Sugar()

	log.Info("=========================================================")
	log.Infof("Solar Download v%s", Version)
	log.Info("=========================================================")
	log.Infof("Destination: %s", *destDir)
	log.Infof("Timeout:     %v", *timeout)

	if err := os.MkdirAll(*destDir, 0755); err != nil {
		log.Fatalf("Cannot create directory: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher := solar.NewFetcher(*timeout)
	startTime := time.Now()
	downloaded := 0
	failed := 0

	for _, src := range solar.Sources {
		if *source != "all" && *source != src.Name {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("Shutdown requested, stopping")
			break
		}

		destPath := filepath.Join(*destDir, src.Filename)
		log.Infof("[%s] Downloading from %s...", src.Name, src.URL)

		n, err := fetcher.Download(ctx, src.URL, destPath)
		if err != nil {
			log.Errorf("[%s] %v", src.Name, err)
			failed++
			continue
		}
		log.Infof("  Downloaded %s (%d bytes, format %s)", src.Filename, n, solar.DetectFormat(destPath))
		downloaded++
	}

	elapsed := time.Since(startTime)

	log.Info("=========================================================")
	log.Info("Download Summary")
	log.Info("=========================================================")
	log.Infof("Downloaded: %d files", downloaded)
	log.Infof("Failed:     %d files", failed)
	log.Infof("Elapsed:    %v", elapsed.Round(time.Millisecond))
	log.Info("=========================================================")

	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

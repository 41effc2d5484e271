// Command validate cross-checks a prepared fixture against the raw dataset
// it was generated from. It recomputes the preparation rules independently
// and fails on any disagreement, guarding fixtures against drift when the
// preparation rules change.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
	"github.com/firescope/wildfire-analytics/internal/source"
)

type checkPhase struct {
	name string
	run  func() error
}

func main() {
	var (
		raw      = flag.String("raw", "", "raw dataset path or URL")
		format   = flag.String("format", source.FormatGeoJSON, "raw dataset format: geojson or shapefile")
		prepared = flag.String("prepared", "", "prepared fixture path")
	)
	flag.Parse()

	if *raw == "" || *prepared == "" {
		fmt.Fprintln(os.Stderr, "usage: validate -raw <dataset> -prepared <fixture> [-format geojson|shapefile]")
		os.Exit(2)
	}

	if err := run(*raw, *format, *prepared); err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("fixture valid")
}

func run(rawPath, format, preparedPath string) error {
	logger := observability.NewLogger(os.Stderr, "warn", "text")
	fetcher := source.NewFetcher(2*time.Minute, 1, 1, logger)
	loader := source.NewLoader(fetcher, rawPath, format, logger)

	reports, err := loader.Load(context.Background())
	if err != nil {
		return err
	}

	data, err := os.ReadFile(preparedPath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var records []domain.FireRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}

	recomputed, dropped := domain.PrepareReports(reports)

	phases := []checkPhase{
		{"record count", func() error {
			// A sampled fixture holds fewer records, never more.
			if len(records) > len(recomputed) {
				return fmt.Errorf("fixture has %d records but the raw dataset prepares to %d (dropped %d)",
					len(records), len(recomputed), dropped)
			}
			return nil
		}},
		{"acreage", func() error {
			for i := range records {
				a := records[i].TotalAcres
				if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
					return fmt.Errorf("record %s has invalid acreage %v", records[i].ID, a)
				}
			}
			return nil
		}},
		{"size classes", func() error {
			for i := range records {
				if want := domain.SizeCategory(records[i].TotalAcres); records[i].SizeCategory != want {
					return fmt.Errorf("record %s: size category %q, recomputed %q",
						records[i].ID, records[i].SizeCategory, want)
				}
			}
			return nil
		}},
		{"cause categories", func() error {
			for i := range records {
				if records[i].Cause == "" {
					return fmt.Errorf("record %s has an empty cause", records[i].ID)
				}
				if want := domain.CauseCategory(records[i].Cause); records[i].CauseCategory != want {
					return fmt.Errorf("record %s: cause category %q, recomputed %q",
						records[i].ID, records[i].CauseCategory, want)
				}
			}
			return nil
		}},
		{"record identity", func() error {
			known := make(map[string]struct{}, len(recomputed))
			for i := range recomputed {
				known[recomputed[i].ID] = struct{}{}
			}
			for i := range records {
				if _, ok := known[records[i].ID]; !ok {
					return fmt.Errorf("record %s does not correspond to any raw report", records[i].ID)
				}
			}
			return nil
		}},
	}

	for _, phase := range phases {
		if err := phase.run(); err != nil {
			return fmt.Errorf("%s: %w", phase.name, err)
		}
		fmt.Printf("ok: %s\n", phase.name)
	}
	return nil
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
	"github.com/firescope/wildfire-analytics/internal/store"
)

// Refresher rebuilds the analysis store from the bulk dataset source. The
// whole table is swapped per refresh, so aggregation queries never observe a
// half-loaded dataset.
type Refresher struct {
	source   DatasetSource
	store    *store.Store
	geocoder domain.Geocoder
	interval time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
	clock    clockwork.Clock

	ready atomic.Bool
}

// NewRefresher builds a refresher. geocoder may be nil; interval zero means
// refresh once and stop.
func NewRefresher(source DatasetSource, s *store.Store, geocoder domain.Geocoder,
	interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Refresher {
	return &Refresher{
		source:   source,
		store:    s,
		geocoder: geocoder,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
	}
}

// Refresh loads the dataset, prepares every report, and replaces the store
// contents. The service becomes ready after the first successful refresh.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := r.clock.Now()

	reports, err := r.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	records, dropped := domain.PrepareReports(reports)
	if r.geocoder != nil {
		for i := range records {
			records[i] = domain.EnrichWithState(ctx, records[i], r.geocoder, r.logger)
		}
	}

	if err := r.store.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}

	r.metrics.RecordsPrepared.Add(float64(len(records)))
	r.metrics.RecordsDropped.Add(float64(dropped))
	r.metrics.DatasetRecords.Set(float64(len(records)))
	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	r.ready.Store(true)

	r.logger.Info("dataset refreshed",
		"records", len(records),
		"dropped", dropped,
		"duration", r.clock.Since(start))
	return nil
}

// Run performs an initial refresh, then repeats on the configured interval
// until ctx is canceled. With no interval it returns after the first
// refresh. A failed periodic refresh keeps the previous dataset and retries
// on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		return err
	}
	if r.interval <= 0 {
		return nil
	}

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if err := r.Refresh(ctx); err != nil {
				r.logger.Error("periodic refresh failed", "error", err)
			}
		}
	}
}

// CheckReadiness reports whether at least one refresh has completed.
func (r *Refresher) CheckReadiness() bool {
	return r.ready.Load()
}

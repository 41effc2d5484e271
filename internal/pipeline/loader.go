package pipeline

import (
	"context"
	"log/slog"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
	"github.com/firescope/wildfire-analytics/internal/store"
)

// StoreLoader persists prepared records into the analysis store.
type StoreLoader struct {
	store   *store.Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewStoreLoader builds a loader writing to the given store.
func NewStoreLoader(s *store.Store, metrics *observability.Metrics, logger *slog.Logger) *StoreLoader {
	return &StoreLoader{store: s, metrics: metrics, logger: logger}
}

// LoadBatch inserts the batch, skipping records already present. Replays of
// committed offsets therefore load cleanly.
func (l *StoreLoader) LoadBatch(ctx context.Context, records []domain.FireRecord) error {
	inserted, err := l.store.InsertBatch(ctx, records)
	if err != nil {
		return err
	}

	total, err := l.store.Count(ctx)
	if err != nil {
		return err
	}
	l.metrics.DatasetRecords.Set(float64(total))

	if inserted < len(records) {
		l.logger.Debug("skipped duplicate records", "batch", len(records), "inserted", inserted)
	}
	return nil
}

// SinkLoader forwards a batch to a downstream sink and counts the published
// records.
type SinkLoader struct {
	sink    BatchLoader
	metrics *observability.Metrics
}

// NewSinkLoader wraps a sink with produced-message accounting.
func NewSinkLoader(sink BatchLoader, metrics *observability.Metrics) *SinkLoader {
	return &SinkLoader{sink: sink, metrics: metrics}
}

// LoadBatch implements BatchLoader.
func (l *SinkLoader) LoadBatch(ctx context.Context, records []domain.FireRecord) error {
	if err := l.sink.LoadBatch(ctx, records); err != nil {
		return err
	}
	l.metrics.MessagesProduced.Add(float64(len(records)))
	return nil
}

// Fanout dispatches a batch to several loaders in order, stopping at the
// first failure. The store loader goes first so a sink outage never loses
// persisted data.
type Fanout []BatchLoader

// LoadBatch implements BatchLoader.
func (f Fanout) LoadBatch(ctx context.Context, records []domain.FireRecord) error {
	for _, l := range f {
		if err := l.LoadBatch(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

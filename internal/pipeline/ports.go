// Package pipeline contains the ingest and refresh machinery that turns raw
// fire reports into analysis-ready records. The batch pipeline consumes an
// event stream; the refresher rebuilds the whole dataset from a bulk source.
// Both run behind small ports so transports stay swappable in tests.
package pipeline

import (
	"context"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

// BatchExtractor pulls the next batch of raw events from a source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context) ([]domain.RawEvent, error)
}

// Transformer converts one raw event into a prepared record.
type Transformer interface {
	Transform(ctx context.Context, event domain.RawEvent) (domain.FireRecord, error)
}

// BatchLoader persists or forwards a batch of prepared records.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.FireRecord) error
}

// DatasetSource produces the full set of raw reports for a refresh.
type DatasetSource interface {
	Load(ctx context.Context) ([]domain.RawFireReport, error)
}

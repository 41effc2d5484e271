package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

// FireTransformer prepares raw fire report events into analysis records,
// optionally backfilling the state attribute through a geocoder.
type FireTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewFireTransformer builds a transformer. geocoder may be nil, in which
// case records keep whatever state attribution they arrived with.
func NewFireTransformer(geocoder domain.Geocoder, logger *slog.Logger) *FireTransformer {
	return &FireTransformer{geocoder: geocoder, logger: logger}
}

// Transform decodes and prepares one raw event. A record with an
// unparseable fire year surfaces domain.ErrUnparseableYear so the caller can
// count it as a drop rather than a failure.
func (t *FireTransformer) Transform(ctx context.Context, event domain.RawEvent) (domain.FireRecord, error) {
	report, err := domain.ParseRawReport(event)
	if err != nil {
		return domain.FireRecord{}, fmt.Errorf("transform event at offset %d: %w", event.Offset, err)
	}

	rec, err := domain.PrepareReport(report)
	if err != nil {
		return domain.FireRecord{}, err
	}

	rec = domain.EnrichWithState(ctx, rec, t.geocoder, t.logger)
	rec.RawPayload = event.Value
	return rec, nil
}

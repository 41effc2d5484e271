package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline runs the extract-transform-load loop over the event stream.
// Transform failures skip the offending message; load failures retry the
// whole batch with exponential backoff, relying on idempotent loads.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	metrics     *observability.Metrics
	logger      *slog.Logger
	clock       clockwork.Clock

	ready   atomic.Bool
	backoff time.Duration
}

// New assembles a pipeline from its three stages.
func New(extractor BatchExtractor, transformer Transformer, loader BatchLoader,
	metrics *observability.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transformer: transformer,
		loader:      loader,
		metrics:     metrics,
		logger:      logger,
		clock:       clockwork.NewRealClock(),
		backoff:     initialBackoff,
	}
}

// Run processes batches until ctx is canceled. A canceled context is a clean
// shutdown, not an error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.ready.Store(true)
	defer p.ready.Store(false)

	p.logger.Info("pipeline started")
	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopped")
			return nil
		}

		events, err := p.extractor.ExtractBatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				p.logger.Info("pipeline stopped")
				return nil
			}
			p.logger.Error("extract batch failed", "error", err)
			if !p.backoffOrStop(ctx) {
				return nil
			}
			continue
		}
		if len(events) == 0 {
			continue
		}

		if err := p.processBatch(ctx, events); err != nil {
			p.logger.Error("process batch failed", "error", err)
			if !p.backoffOrStop(ctx) {
				return nil
			}
			continue
		}
		p.backoff = initialBackoff
	}
}

// processBatch transforms every event, loads the survivors, and commits the
// batch's final offset. Events that fail transformation are logged, counted,
// and skipped; their offsets still commit so a poison message cannot wedge
// the partition.
func (p *Pipeline) processBatch(ctx context.Context, events []domain.RawEvent) error {
	start := p.clock.Now()
	p.metrics.MessagesConsumed.Add(float64(len(events)))
	p.metrics.BatchSize.Observe(float64(len(events)))

	records := make([]domain.FireRecord, 0, len(events))
	for _, event := range events {
		rec, err := p.transformer.Transform(ctx, event)
		if err != nil {
			if errors.Is(err, domain.ErrUnparseableYear) {
				p.metrics.RecordsDropped.Inc()
				p.logger.Debug("dropped report with unparseable year",
					"topic", event.Topic, "partition", event.Partition, "offset", event.Offset)
				continue
			}
			p.metrics.TransformErrors.Inc()
			p.logger.Warn("skipping untransformable message",
				"topic", event.Topic, "partition", event.Partition, "offset", event.Offset,
				"error", err)
			continue
		}
		records = append(records, rec)
	}

	if len(records) > 0 {
		if err := p.loader.LoadBatch(ctx, records); err != nil {
			return err
		}
		p.metrics.RecordsPrepared.Add(float64(len(records)))
	}

	if err := p.commitBatch(ctx, events); err != nil {
		return err
	}

	p.metrics.BatchDuration.Observe(p.clock.Since(start).Seconds())
	p.logger.Debug("processed batch",
		"events", len(events), "records", len(records),
		"duration", p.clock.Since(start))
	return nil
}

// commitBatch acknowledges the last event, which commits every offset below
// it within the consumer group.
func (p *Pipeline) commitBatch(ctx context.Context, events []domain.RawEvent) error {
	last := events[len(events)-1]
	if last.Commit == nil {
		return nil
	}
	return last.Commit(ctx)
}

// backoffOrStop sleeps the current backoff, doubling it for next time.
// Returns false if ctx was canceled during the sleep.
func (p *Pipeline) backoffOrStop(ctx context.Context) bool {
	if !p.sleepWithContext(ctx, p.backoff) {
		return false
	}
	p.backoff *= 2
	if p.backoff > maxBackoff {
		p.backoff = maxBackoff
	}
	return true
}

func (p *Pipeline) sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

// CheckReadiness reports whether the pipeline loop is running.
func (p *Pipeline) CheckReadiness() bool {
	return p.ready.Load()
}

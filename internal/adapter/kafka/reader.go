// Package kafka adapts the ingest pipeline's extractor and loader ports to
// Kafka topics. Raw fire reports arrive on the source topic; prepared
// records are optionally republished to a sink topic for downstream
// consumers.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

// ReaderConfig configures the consumer side.
type ReaderConfig struct {
	Brokers       []string
	Topic         string
	GroupID       string
	BatchSize     int
	FlushInterval time.Duration
}

// Reader consumes raw fire reports from the source topic in batches.
type Reader struct {
	reader        *kafkago.Reader
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader builds a consumer-group reader for the source topic.
func NewReader(cfg ReaderConfig, logger *slog.Logger) *Reader {
	return &Reader{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          cfg.Topic,
			GroupID:        cfg.GroupID,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0, // explicit commits only
		}),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		logger:        logger,
	}
}

// ExtractBatch reads up to batchSize messages, returning early once the
// flush interval elapses so a slow topic still makes progress. An empty
// batch with a nil error means the window passed with nothing to read.
func (r *Reader) ExtractBatch(ctx context.Context) ([]domain.RawEvent, error) {
	batchCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	events := make([]domain.RawEvent, 0, r.batchSize)
	for len(events) < r.batchSize {
		msg, err := r.reader.FetchMessage(batchCtx)
		if err != nil {
			// The window closing is the normal batch boundary.
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return events, err
			}
			return events, fmt.Errorf("fetch message: %w", err)
		}
		events = append(events, r.mapMessage(msg))
	}

	r.logger.Debug("extracted batch", "size", len(events), "topic", r.reader.Config().Topic)
	return events, nil
}

// mapMessage converts a Kafka message into the transport-neutral RawEvent.
// The Commit closure acknowledges the message against the consumer group.
func (r *Reader) mapMessage(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}

// Close shuts down the underlying consumer, leaving the group.
func (r *Reader) Close() error {
	return r.reader.Close()
}

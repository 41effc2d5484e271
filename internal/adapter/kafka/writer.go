package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

// Writer publishes prepared fire records to the sink topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter builds a producer for the sink topic. Writes are acknowledged by
// all in-sync replicas before returning.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	return &Writer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

// LoadBatch serializes and publishes a batch of prepared records.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.FireRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(records))
	for i := range records {
		msg, err := serializeRecord(&records[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write prepared records: %w", err)
	}
	w.logger.Debug("published batch", "size", len(msgs), "topic", w.writer.Topic)
	return nil
}

// serializeRecord renders one record as a message keyed by record ID, so a
// compacted sink topic retains exactly one row per fire.
func serializeRecord(rec *domain.FireRecord) (kafkago.Message, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", rec.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "size_category", Value: []byte(rec.SizeCategory)},
			{Key: "cause_category", Value: []byte(rec.CauseCategory)},
		},
	}, nil
}

// Close flushes and shuts down the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapMessage(t *testing.T) {
	r := &Reader{}
	ts := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	msg := kafkago.Message{
		Topic:     "raw-fire-reports",
		Partition: 2,
		Offset:    41,
		Key:       []byte("fire-key"),
		Value:     []byte(`{"FIREYEAR":"2004"}`),
		Time:      ts,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("usfs")},
		},
	}

	event := r.mapMessage(msg)

	assert.Equal(t, []byte("fire-key"), event.Key)
	assert.Equal(t, []byte(`{"FIREYEAR":"2004"}`), event.Value)
	assert.Equal(t, "raw-fire-reports", event.Topic)
	assert.Equal(t, 2, event.Partition)
	assert.Equal(t, int64(41), event.Offset)
	assert.Equal(t, ts, event.Timestamp)
	assert.Equal(t, map[string]string{"source": "usfs"}, event.Headers)
	assert.NotNil(t, event.Commit)
}

func TestSerializeRecord(t *testing.T) {
	rec := domain.FireRecord{
		ID:            "fire-abc123",
		Name:          "POWER",
		Geo:           domain.Geo{Lat: 37.81, Lon: -119.51},
		Year:          2004,
		TotalAcres:    16823,
		Cause:         "Lightning",
		CauseCategory: domain.CategoryNatural,
		SizeCategory:  domain.SizeMega,
		State:         "California",
		PreparedAt:    time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
	}

	msg, err := serializeRecord(&rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("fire-abc123"), msg.Key)

	var decoded domain.FireRecord
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, rec, decoded)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, domain.SizeMega, headers["size_category"])
	assert.Equal(t, domain.CategoryNatural, headers["cause_category"])
}

func TestSerializeRecord_OmitsRawPayload(t *testing.T) {
	rec := domain.FireRecord{
		ID:         "fire-abc123",
		RawPayload: []byte(`{"FIREYEAR":"2004"}`),
	}

	msg, err := serializeRecord(&rec)
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), "FIREYEAR")
}

func TestReaderConfigDefaultsAreExplicit(t *testing.T) {
	// Explicit commits only: the reader must never auto-commit offsets the
	// pipeline has not loaded yet.
	r := NewReader(ReaderConfig{
		Brokers:       []string{"localhost:9092"},
		Topic:         "raw-fire-reports",
		GroupID:       "wildfire-analytics",
		BatchSize:     50,
		FlushInterval: 500 * time.Millisecond,
	}, testLogger())
	t.Cleanup(func() { _ = r.Close() })

	assert.Equal(t, time.Duration(0), r.reader.Config().CommitInterval)
	assert.Equal(t, 50, r.batchSize)
}

func TestWriterClose(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "prepared-fire-records", testLogger())
	require.NoError(t, w.Close())
}

func TestWriterLoadBatch_Empty(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "prepared-fire-records", testLogger())
	t.Cleanup(func() { _ = w.Close() })

	// An empty batch never touches the network.
	require.NoError(t, w.LoadBatch(context.Background(), nil))
}

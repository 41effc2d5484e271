//go:build integration

// Package integration exercises the ingest pipeline against a real Kafka
// broker. Run with: go test -tags integration ./internal/integration/...
package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	adapterkafka "github.com/firescope/wildfire-analytics/internal/adapter/kafka"
	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
	"github.com/firescope/wildfire-analytics/internal/pipeline"
	"github.com/firescope/wildfire-analytics/internal/store"
)

const sourceTopic = "raw-fire-reports"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker in a container and returns its
// bootstrap addresses.
func startKafka(t *testing.T, ctx context.Context) []string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("wildfire-test"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func produceRawReports(t *testing.T, ctx context.Context, brokers []string, reports []domain.RawFireReport) {
	t.Helper()

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  sourceTopic,
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	msgs := make([]kafkago.Message, 0, len(reports))
	for _, rep := range reports {
		value, err := json.Marshal(rep)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Value: value})
	}
	require.NoError(t, writer.WriteMessages(ctx, msgs...))
}

func TestKafkaPipeline_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers := startKafka(t, ctx)
	createTopic(t, brokers[0], sourceTopic)

	produceRawReports(t, ctx, brokers, []domain.RawFireReport{
		{Name: "POWER", FireYear: "2004", TotalAcres: "16823", StatCause: "Lightning", StateName: "California", Lat: "37.81", Lon: "-119.51"},
		{Name: "GRANDVIEW", FireYear: "2011", TotalAcres: "52.3", StatCause: "Debris Burning", StateName: "Oregon"},
		{FireYear: "n/a", TotalAcres: "7", StatCause: "Campfire", StateName: "Colorado"},
	})

	s, err := store.Open(filepath.Join(t.TempDir(), "fires.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	reader := adapterkafka.NewReader(adapterkafka.ReaderConfig{
		Brokers:       brokers,
		Topic:         sourceTopic,
		GroupID:       "wildfire-integration",
		BatchSize:     10,
		FlushInterval: time.Second,
	}, testLogger())
	t.Cleanup(func() { _ = reader.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(
		reader,
		pipeline.NewFireTransformer(nil, testLogger()),
		pipeline.NewStoreLoader(s, metrics, testLogger()),
		metrics,
		testLogger(),
	)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()

	// The record with the unparseable year is dropped; the other two land.
	require.Eventually(t, func() bool {
		n, err := s.Count(ctx)
		return err == nil && n == 2
	}, 2*time.Minute, 500*time.Millisecond)

	stop()
	require.NoError(t, <-done)

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalFires)
	require.Equal(t, "California", summary.TopState)
	require.Equal(t, 1, summary.MegaFires)
}

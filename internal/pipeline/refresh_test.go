package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
	"github.com/firescope/wildfire-analytics/internal/store"
)

type fakeSource struct {
	mu      sync.Mutex
	reports []domain.RawFireReport
	err     error
}

func (s *fakeSource) Load(context.Context) ([]domain.RawFireReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.reports, nil
}

func (s *fakeSource) set(reports []domain.RawFireReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = reports
}

func sampleReports() []domain.RawFireReport {
	return []domain.RawFireReport{
		{Name: "POWER", FireYear: "2004", TotalAcres: "16823", StatCause: "Lightning", StateName: "California", Lat: "37.81", Lon: "-119.51"},
		{Name: "GRANDVIEW", FireYear: "2011", TotalAcres: "52.3", StatCause: "Debris Burning", StateName: "Oregon"},
		{FireYear: "n/a", TotalAcres: "7", StatCause: "Campfire", StateName: "Colorado"},
	}
}

func openPipelineStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "fires.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRefresher_Refresh(t *testing.T) {
	src := &fakeSource{reports: sampleReports()}
	s := openPipelineStore(t)
	metrics := observability.NewMetricsForTesting()
	r := NewRefresher(src, s, nil, 0, metrics, testLogger())

	assert.False(t, r.CheckReadiness())
	require.NoError(t, r.Refresh(context.Background()))
	assert.True(t, r.CheckReadiness())

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsPrepared))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DatasetRecords))
}

func TestRefresher_RefreshWithBackfill(t *testing.T) {
	src := &fakeSource{reports: []domain.RawFireReport{
		{Name: "UNNAMED", FireYear: "2010", TotalAcres: "5", Lat: "39.5", Lon: "-116.9"},
	}}
	s := openPipelineStore(t)
	r := NewRefresher(src, s, &stubGeocoder{state: "Nevada"}, 0,
		observability.NewMetricsForTesting(), testLogger())

	require.NoError(t, r.Refresh(context.Background()))

	counts, err := s.StateCounts(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, "Nevada", counts[0].State)
}

func TestRefresher_SourceFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("fetch failed")}
	r := NewRefresher(src, openPipelineStore(t), nil, 0,
		observability.NewMetricsForTesting(), testLogger())

	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dataset")
	assert.False(t, r.CheckReadiness())
}

func TestRefresher_RunOnce(t *testing.T) {
	src := &fakeSource{reports: sampleReports()}
	r := NewRefresher(src, openPipelineStore(t), nil, 0,
		observability.NewMetricsForTesting(), testLogger())

	// With no interval Run refreshes once and returns.
	require.NoError(t, r.Run(context.Background()))
	assert.True(t, r.CheckReadiness())
}

func TestRefresher_RunPeriodic(t *testing.T) {
	src := &fakeSource{reports: sampleReports()[:1]}
	s := openPipelineStore(t)
	r := NewRefresher(src, s, nil, time.Hour,
		observability.NewMetricsForTesting(), testLogger())
	fc := clockwork.NewFakeClock()
	r.clock = fc

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, r.CheckReadiness, time.Second, 10*time.Millisecond)

	// Wait for the ticker, grow the dataset, then advance past the interval.
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	src.set(sampleReports())
	fc.Advance(time.Hour)

	require.Eventually(t, func() bool {
		n, err := s.Count(context.Background())
		return err == nil && n == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher() *Fetcher {
	return NewFetcher(5*time.Second, 100, 10, testLogger())
}

func TestFetcher_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fires.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[]}`), 0o600))

	data, err := newTestFetcher().Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")
}

func TestFetcher_LocalFileMissing(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.geojson"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read dataset file")
}

func TestFetcher_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	t.Cleanup(srv.Close)

	data, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")
}

func TestFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetcher_RateLimitCanceled(t *testing.T) {
	// Limiter with no burst forces a wait; a canceled context must surface.
	f := NewFetcher(time.Second, 0.001, 1, testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)

	// First request consumes the single burst token.
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestLoader_GeoJSON(t *testing.T) {
	loader := NewLoader(newTestFetcher(), filepath.Join("testdata", "fires.geojson"), FormatGeoJSON, testLogger())

	reports, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 4)
}

func TestLoader_Shapefile(t *testing.T) {
	path := writeTestShapefile(t)
	loader := NewLoader(newTestFetcher(), path, FormatShapefile, testLogger())

	reports, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 3)
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	loader := NewLoader(newTestFetcher(), "somewhere", "netcdf", testLogger())

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dataset format")
}

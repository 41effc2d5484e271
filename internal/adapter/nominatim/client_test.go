package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, testLogger(), nil)
}

func TestClient_ReverseGeocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "37.81000", r.URL.Query().Get("lat"))
		assert.Equal(t, "-119.51000", r.URL.Query().Get("lon"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"display_name": "California, United States",
			"address": {"state": "California", "country_code": "us"}
		}`))
	})

	placement, err := client.ReverseGeocode(context.Background(), 37.81, -119.51)
	require.NoError(t, err)
	assert.Equal(t, "California", placement.State)
	assert.Equal(t, "California, United States", placement.DisplayName)
}

func TestClient_ReverseGeocodeUnattributable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
	})

	placement, err := client.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.Placement{}, placement)
}

func TestClient_ReverseGeocodeServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.ReverseGeocode(context.Background(), 37.81, -119.51)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

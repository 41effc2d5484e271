// Package nominatim implements reverse geocoding against a Nominatim
// endpoint, used to backfill the state attribute on fire records that lack
// one. The public OpenStreetMap instance enforces an absolute limit of one
// request per second, so callers should keep the cache in front of it.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
)

const userAgent = "wildfire-analytics/1.0"

// Client talks to a Nominatim-compatible reverse geocoding endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient builds a geocoding client. metrics may be nil.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		State string `json:"state"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a state-level placement. A location
// the endpoint cannot attribute yields an empty Placement without error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Placement, error) {
	if c.metrics != nil {
		c.metrics.GeocodeRequests.Inc()
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 5, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 5, 64))
	q.Set("zoom", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return domain.Placement{}, fmt.Errorf("build reverse geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(fmt.Errorf("reverse geocode: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return c.fail(fmt.Errorf("reverse geocode: status %d: %s", resp.StatusCode, body))
	}

	var rev reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&rev); err != nil {
		return c.fail(fmt.Errorf("decode reverse geocode response: %w", err))
	}

	// "Unable to geocode" means open water or unmapped territory, which is
	// an answer, not a failure.
	if rev.Error != "" {
		c.logger.Debug("location not attributable", "lat", lat, "lon", lon, "reason", rev.Error)
		return domain.Placement{}, nil
	}

	return domain.Placement{
		State:       rev.Address.State,
		DisplayName: rev.DisplayName,
	}, nil
}

func (c *Client) fail(err error) (domain.Placement, error) {
	if c.metrics != nil {
		c.metrics.GeocodeFailures.Inc()
	}
	return domain.Placement{}, err
}

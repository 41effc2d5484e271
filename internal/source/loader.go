package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

// Supported dataset formats.
const (
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// Loader combines a fetcher, a dataset location, and a format into a single
// Load operation that yields raw fire reports.
type Loader struct {
	fetcher  *Fetcher
	location string
	format   string
	logger   *slog.Logger
}

// NewLoader creates a Loader. The shapefile format only supports local
// paths; config validation enforces that before a Loader is constructed.
func NewLoader(fetcher *Fetcher, location, format string, logger *slog.Logger) *Loader {
	return &Loader{
		fetcher:  fetcher,
		location: location,
		format:   format,
		logger:   logger,
	}
}

// Load retrieves and decodes the configured dataset.
func (l *Loader) Load(ctx context.Context) ([]domain.RawFireReport, error) {
	switch l.format {
	case FormatGeoJSON:
		data, err := l.fetcher.Fetch(ctx, l.location)
		if err != nil {
			return nil, err
		}
		reports, err := DecodeGeoJSON(data)
		if err != nil {
			return nil, err
		}
		l.logger.Info("dataset decoded", "format", l.format, "reports", len(reports))
		return reports, nil

	case FormatShapefile:
		reports, err := DecodeShapefile(l.location)
		if err != nil {
			return nil, err
		}
		l.logger.Info("dataset decoded", "format", l.format, "reports", len(reports))
		return reports, nil

	default:
		return nil, fmt.Errorf("unsupported dataset format %q", l.format)
	}
}

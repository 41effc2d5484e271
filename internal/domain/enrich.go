package domain

import (
	"context"
	"log/slog"
)

// EnrichWithState attempts to backfill a record's missing state name by
// reverse geocoding its coordinates. If geocoder is nil, the record already
// carries a state, or geocoding fails, the record is returned with
// StateSource set accordingly (graceful degradation).
func EnrichWithState(ctx context.Context, rec FireRecord, geocoder Geocoder, logger *slog.Logger) FireRecord {
	if geocoder == nil {
		return rec
	}

	if rec.State != "" {
		rec.StateSource = "original"
		return rec
	}

	hasCoords := rec.Geo.Lat != 0 || rec.Geo.Lon != 0
	if !hasCoords {
		rec.StateSource = "original"
		return rec
	}

	result, err := geocoder.ReverseGeocode(ctx, rec.Geo.Lat, rec.Geo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"record_id", rec.ID,
			"lat", rec.Geo.Lat,
			"lon", rec.Geo.Lon,
			"error", err,
		)
		rec.StateSource = "failed"
		return rec
	}
	if result.State != "" {
		rec.State = result.State
		rec.StateSource = "backfill"
		return rec
	}

	rec.StateSource = "original"
	return rec
}

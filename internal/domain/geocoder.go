package domain

import "context"

// Placement contains location data returned by a reverse geocoding provider.
type Placement struct {
	State       string
	DisplayName string
}

// Geocoder backfills administrative location data from coordinates.
type Geocoder interface {
	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (Placement, error)
}

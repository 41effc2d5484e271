// Package source retrieves and decodes raw wildfire datasets. Both decoders
// normalize features into the flat string-typed domain.RawFireReport shape;
// all type coercion happens later in the preparation pipeline.
package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

// GeoJSON wire types. Coordinates are decoded lazily because only Point
// geometries are consumed; polygons and other shapes are skipped.
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   *geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// DecodeGeoJSON parses a GeoJSON FeatureCollection into raw fire reports.
// Features without a Point geometry are skipped; attribute coercion is left
// to the preparation pipeline.
func DecodeGeoJSON(data []byte) ([]domain.RawFireReport, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	reports := make([]domain.RawFireReport, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil || f.Geometry.Type != "Point" {
			continue
		}

		var coords []float64 // [lon, lat]
		if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil || len(coords) < 2 {
			continue
		}

		reports = append(reports, domain.RawFireReport{
			Name:       propString(f.Properties, "FIRENAME"),
			FireYear:   propString(f.Properties, "FIREYEAR"),
			TotalAcres: propString(f.Properties, "TOTALACRES"),
			StatCause:  propString(f.Properties, "STATCAUSE"),
			StateName:  propString(f.Properties, "STATENAME"),
			Lat:        formatCoord(coords[1]),
			Lon:        formatCoord(coords[0]),
		})
	}
	return reports, nil
}

// propString renders a GeoJSON property as a string. JSON numbers decode as
// float64, so integer-valued columns like FIREYEAR come back as "2015"
// rather than "2015.0".
func propString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package domain

import (
	"context"
	"time"
)

// RawFireReport is one raw dataset row with every attribute still in string
// form. It is the flat JSON shape published to the raw Kafka topic and the
// common output of the GeoJSON and shapefile decoders. JSON tags match the
// upstream dataset column names.
type RawFireReport struct {
	Name       string `json:"FIRENAME,omitempty"`
	FireYear   string `json:"FIREYEAR"`
	TotalAcres string `json:"TOTALACRES"`
	StatCause  string `json:"STATCAUSE"`
	StateName  string `json:"STATENAME"`
	Lat        string `json:"LAT"`
	Lon        string `json:"LON"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// FireRecord is the analysis-ready representation after preparation.
type FireRecord struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	Geo           Geo     `json:"geo,omitempty"`
	Year          int     `json:"year"`
	TotalAcres    float64 `json:"total_acres"`
	Cause         string  `json:"cause"`
	CauseCategory string  `json:"cause_category"`
	SizeCategory  string  `json:"size_category"`
	State         string  `json:"state,omitempty"`

	// State backfill provenance: "backfill", "original", or "failed".
	StateSource string `json:"state_source,omitempty"`

	RawPayload []byte    `json:"-"`
	PreparedAt time.Time `json:"prepared_at"`
}

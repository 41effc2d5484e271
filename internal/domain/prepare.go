package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrUnparseableYear marks a raw report whose FIREYEAR cannot be coerced to
// an integer. Such records are excluded from the prepared set rather than
// carried with a null year, because yearly aggregation assumes a total order
// over the retained records.
var ErrUnparseableYear = errors.New("unparseable fire year")

// Cause categories.
const (
	CategoryNatural = "Natural"
	CategoryHuman   = "Human"
	CategoryOther   = "Other"
	CategoryUnknown = "Unknown"
)

// CauseUnknown is the default substituted for an absent or empty cause.
const CauseUnknown = "Unknown"

// Size class labels, ordered smallest to largest.
const (
	SizeSmall     = "Small"
	SizeMedium    = "Medium"
	SizeLarge     = "Large"
	SizeVeryLarge = "Very Large"
	SizeMega      = "Mega"
)

// causeCategories is the fixed many-to-one mapping from a statistical cause
// label to its coarse category. Case-sensitive exact match; labels missing
// from the table map to Other.
var causeCategories = map[string]string{
	"Lightning":      CategoryNatural,
	"Equipment Use":  CategoryHuman,
	"Smoking":        CategoryHuman,
	"Campfire":       CategoryHuman,
	"Debris Burning": CategoryHuman,
	"Railroad":       CategoryHuman,
	"Arson":          CategoryHuman,
	"Children":       CategoryHuman,
	"Fireworks":      CategoryHuman,
	"Powerline":      CategoryHuman,
	"Miscellaneous":  CategoryOther,
	"Unknown":        CategoryUnknown,
}

// sizeBoundaries are the lower-inclusive bin edges separating the five size
// classes. An acreage equal to an edge belongs to the bin above it.
var sizeBoundaries = []float64{10, 100, 1000, 10000}

var sizeLabels = []string{SizeSmall, SizeMedium, SizeLarge, SizeVeryLarge, SizeMega}

// SizeCategories returns the size class labels in ascending bin order.
func SizeCategories() []string {
	out := make([]string, len(sizeLabels))
	copy(out, sizeLabels)
	return out
}

// ParseRawReport deserializes a RawEvent's value into a RawFireReport.
// It expects the flat JSON shape produced by the dataset decoders and the
// upstream report publisher.
func ParseRawReport(raw RawEvent) (RawFireReport, error) {
	var rep RawFireReport
	if err := json.Unmarshal(raw.Value, &rep); err != nil {
		return RawFireReport{}, fmt.Errorf("parse raw report: %w", err)
	}
	return rep, nil
}

// PrepareReport coerces a raw report's fields and computes the derived
// attributes. Malformed acreage and cause values degrade to defaults; a
// malformed year returns ErrUnparseableYear and the record must be dropped.
func PrepareReport(raw RawFireReport) (FireRecord, error) {
	year, err := parseYear(raw.FireYear)
	if err != nil {
		return FireRecord{}, fmt.Errorf("%w: %q", ErrUnparseableYear, raw.FireYear)
	}

	acres := parseAcres(raw.TotalAcres)
	cause := strings.TrimSpace(raw.StatCause)
	if cause == "" {
		cause = CauseUnknown
	}

	lat := parseFloatOrZero(raw.Lat)
	lon := parseFloatOrZero(raw.Lon)
	state := strings.TrimSpace(raw.StateName)

	return FireRecord{
		ID:            generateID(state, lat, lon, year, raw.Name),
		Name:          strings.TrimSpace(raw.Name),
		Geo:           Geo{Lat: lat, Lon: lon},
		Year:          year,
		TotalAcres:    acres,
		Cause:         cause,
		CauseCategory: CauseCategory(cause),
		SizeCategory:  SizeCategory(acres),
		State:         state,
		PreparedAt:    clock.Now(),
	}, nil
}

// PrepareReports runs PrepareReport over a collection, excluding records with
// an unparseable year. Returns the prepared records and the dropped count.
func PrepareReports(reports []RawFireReport) ([]FireRecord, int) {
	records := make([]FireRecord, 0, len(reports))
	dropped := 0
	for _, rep := range reports {
		rec, err := PrepareReport(rep)
		if err != nil {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// CauseCategory maps a cause label to one of the four coarse categories.
// An empty cause is Unknown; a label missing from the table is Other.
func CauseCategory(cause string) string {
	if cause == "" {
		cause = CauseUnknown
	}
	if cat, ok := causeCategories[cause]; ok {
		return cat
	}
	return CategoryOther
}

// SizeCategory partitions an acreage into one of the five size classes using
// a sorted boundary search. Bins are lower-inclusive: exactly 10 acres is
// Medium, exactly 10000 is Mega.
func SizeCategory(acres float64) string {
	idx := sort.Search(len(sizeBoundaries), func(i int) bool {
		return sizeBoundaries[i] > acres
	})
	return sizeLabels[idx]
}

// parseYear coerces a year string to an integer. Fractional values such as
// "2015.0" are truncated, matching the upstream exports that render integer
// columns as floats.
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty year")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite year %q", s)
	}
	return int(v), nil
}

// parseAcres coerces an acreage string to a nonnegative float64.
// Unparseable, non-finite, or negative values become 0.
func parseAcres(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// generateID produces a deterministic ID from the record's key fields.
// Reprocessing the same raw row yields the same ID, which makes inserts
// idempotent (ON CONFLICT DO NOTHING) and topic replays safe.
func generateID(state string, lat, lon float64, year int, name string) string {
	input := fmt.Sprintf("%s|%.5f|%.5f|%d|%s", state, lat, lon, year, name)
	hash := sha256.Sum256([]byte(input))
	return "fire-" + hex.EncodeToString(hash[:8])
}

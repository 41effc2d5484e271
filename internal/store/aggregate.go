package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/firescope/wildfire-analytics/internal/domain"
)

// Summary is the headline view of the whole dataset.
type Summary struct {
	TotalFires     int     `json:"total_fires"`
	TotalAcres     float64 `json:"total_acres"`
	AvgAcres       float64 `json:"avg_acres"`
	LargestAcres   float64 `json:"largest_acres"`
	YearMin        int     `json:"year_min"`
	YearMax        int     `json:"year_max"`
	StatesAffected int     `json:"states_affected"`
	TopState       string  `json:"top_state"`
	TopCause       string  `json:"top_cause"`
	LargeFires     int     `json:"large_fires"`
	MegaFires      int     `json:"mega_fires"`
}

// YearlyTrend is one point on the fires-per-year chart.
type YearlyTrend struct {
	Year       int     `json:"year"`
	Fires      int     `json:"fires"`
	TotalAcres float64 `json:"total_acres"`
	AvgAcres   float64 `json:"avg_acres"`
}

// CauseStat aggregates the dataset by reported cause.
type CauseStat struct {
	Cause        string  `json:"cause"`
	Fires        int     `json:"fires"`
	TotalAcres   float64 `json:"total_acres"`
	AvgAcres     float64 `json:"avg_acres"`
	LargestAcres float64 `json:"largest_acres"`
	YearsActive  int     `json:"years_active"`
}

// CategoryCount is one slice of the cause-category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Fires    int    `json:"fires"`
}

// CauseSizeRow is one row of the cause-by-size-class crosstab. Counts is
// keyed by size category label.
type CauseSizeRow struct {
	Cause  string         `json:"cause"`
	Counts map[string]int `json:"counts"`
}

// StateCount is one entry of the fires-per-state ranking.
type StateCount struct {
	State      string  `json:"state"`
	Fires      int     `json:"fires"`
	TotalAcres float64 `json:"total_acres"`
}

// MapPoint is the trimmed record shape served to map clients.
type MapPoint struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Year         int     `json:"year"`
	TotalAcres   float64 `json:"total_acres"`
	Cause        string  `json:"cause"`
	SizeCategory string  `json:"size_category"`
	State        string  `json:"state,omitempty"`
}

// MapFilter narrows and samples the map query. Zero values mean no filter;
// SampleSize <= 0 disables sampling.
type MapFilter struct {
	Year         int
	SizeCategory string
	SampleSize   int
	Seed         int64
}

// Summary computes the dataset-wide headline numbers. Large and mega counts
// use strict thresholds (over 1,000 and over 10,000 acres), which is not the
// same cut as the size-class bins.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var (
		sum              Summary
		yearMin, yearMax sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_acres), 0),
		       COALESCE(AVG(total_acres), 0),
		       COALESCE(MAX(total_acres), 0),
		       MIN(year), MAX(year),
		       COUNT(DISTINCT CASE WHEN state != '' THEN state END),
		       COALESCE(SUM(total_acres > 1000), 0),
		       COALESCE(SUM(total_acres > 10000), 0)
		FROM fires`,
	).Scan(&sum.TotalFires, &sum.TotalAcres, &sum.AvgAcres, &sum.LargestAcres,
		&yearMin, &yearMax, &sum.StatesAffected, &sum.LargeFires, &sum.MegaFires)
	if err != nil {
		return Summary{}, fmt.Errorf("query summary: %w", err)
	}
	sum.YearMin = int(yearMin.Int64)
	sum.YearMax = int(yearMax.Int64)

	sum.TopState, err = s.topGroup(ctx, "state")
	if err != nil {
		return Summary{}, err
	}
	sum.TopCause, err = s.topGroup(ctx, "cause")
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// topGroup returns the most frequent non-empty value of the given column.
// Ties break alphabetically so the answer is stable across refreshes.
func (s *Store) topGroup(ctx context.Context, column string) (string, error) {
	// column is always a compile-time constant, never user input.
	q := fmt.Sprintf(`
		SELECT %s FROM fires WHERE %s != ''
		GROUP BY %s ORDER BY COUNT(*) DESC, %s ASC LIMIT 1`,
		column, column, column, column)

	var top string
	err := s.db.QueryRowContext(ctx, q).Scan(&top)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query top %s: %w", column, err)
	}
	return top, nil
}

// YearlyTrends returns per-year counts and acreage in ascending year order.
func (s *Store) YearlyTrends(ctx context.Context) ([]YearlyTrend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, COUNT(*), SUM(total_acres), AVG(total_acres)
		FROM fires GROUP BY year ORDER BY year ASC`)
	if err != nil {
		return nil, fmt.Errorf("query yearly trends: %w", err)
	}
	defer rows.Close()

	var trends []YearlyTrend
	for rows.Next() {
		var t YearlyTrend
		if err := rows.Scan(&t.Year, &t.Fires, &t.TotalAcres, &t.AvgAcres); err != nil {
			return nil, fmt.Errorf("scan yearly trend: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yearly trends: %w", err)
	}
	return trends, nil
}

// CauseStats returns the top causes by fire count, at most limit entries.
func (s *Store) CauseStats(ctx context.Context, limit int) ([]CauseStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cause, COUNT(*), SUM(total_acres), AVG(total_acres), MAX(total_acres),
		       COUNT(DISTINCT year)
		FROM fires GROUP BY cause
		ORDER BY COUNT(*) DESC, cause ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cause stats: %w", err)
	}
	defer rows.Close()

	var stats []CauseStat
	for rows.Next() {
		var c CauseStat
		if err := rows.Scan(&c.Cause, &c.Fires, &c.TotalAcres, &c.AvgAcres,
			&c.LargestAcres, &c.YearsActive); err != nil {
			return nil, fmt.Errorf("scan cause stat: %w", err)
		}
		stats = append(stats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cause stats: %w", err)
	}
	return stats, nil
}

// CategoryCounts returns fire counts per cause category, largest first.
func (s *Store) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cause_category, COUNT(*)
		FROM fires GROUP BY cause_category
		ORDER BY COUNT(*) DESC, cause_category ASC`)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Fires); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return counts, nil
}

// CauseSizeMatrix crosses reported cause against size class for the top
// limit causes by total fire count. Every row carries all size labels so
// clients render a rectangular table.
func (s *Store) CauseSizeMatrix(ctx context.Context, limit int) ([]CauseSizeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.cause, f.size_category, COUNT(*)
		FROM fires f
		JOIN (
			SELECT cause, COUNT(*) AS total FROM fires
			GROUP BY cause ORDER BY total DESC, cause ASC LIMIT ?
		) top ON top.cause = f.cause
		GROUP BY f.cause, f.size_category
		ORDER BY top.total DESC, f.cause ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cause size matrix: %w", err)
	}
	defer rows.Close()

	labels := domain.SizeCategories()

	var matrix []CauseSizeRow
	index := map[string]int{}
	for rows.Next() {
		var (
			cause, size string
			count       int
		)
		if err := rows.Scan(&cause, &size, &count); err != nil {
			return nil, fmt.Errorf("scan cause size cell: %w", err)
		}
		i, ok := index[cause]
		if !ok {
			counts := make(map[string]int, len(labels))
			for _, l := range labels {
				counts[l] = 0
			}
			matrix = append(matrix, CauseSizeRow{Cause: cause, Counts: counts})
			i = len(matrix) - 1
			index[cause] = i
		}
		matrix[i].Counts[size] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cause size matrix: %w", err)
	}
	return matrix, nil
}

// StateCounts ranks states by fire count, at most limit entries. Records
// with no state attribution are excluded.
func (s *Store) StateCounts(ctx context.Context, limit int) ([]StateCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*), SUM(total_acres)
		FROM fires WHERE state != ''
		GROUP BY state ORDER BY COUNT(*) DESC, state ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query state counts: %w", err)
	}
	defer rows.Close()

	var counts []StateCount
	for rows.Next() {
		var c StateCount
		if err := rows.Scan(&c.State, &c.Fires, &c.TotalAcres); err != nil {
			return nil, fmt.Errorf("scan state count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state counts: %w", err)
	}
	return counts, nil
}

// MapPoints returns map-ready records matching the filter. When the match
// exceeds filter.SampleSize a fixed-seed sample is drawn, so the same
// dataset and filter always plot the same points.
func (s *Store) MapPoints(ctx context.Context, filter MapFilter) ([]MapPoint, error) {
	q := `SELECT id, name, lat, lon, year, total_acres, cause, size_category, state
	      FROM fires WHERE 1=1`
	var args []any
	if filter.Year != 0 {
		q += ` AND year = ?`
		args = append(args, filter.Year)
	}
	if filter.SizeCategory != "" {
		q += ` AND size_category = ?`
		args = append(args, filter.SizeCategory)
	}
	q += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query map points: %w", err)
	}
	defer rows.Close()

	var points []MapPoint
	for rows.Next() {
		var p MapPoint
		if err := rows.Scan(&p.ID, &p.Name, &p.Lat, &p.Lon, &p.Year,
			&p.TotalAcres, &p.Cause, &p.SizeCategory, &p.State); err != nil {
			return nil, fmt.Errorf("scan map point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate map points: %w", err)
	}

	if filter.SampleSize > 0 && len(points) > filter.SampleSize {
		points = domain.Sample(points, filter.SampleSize, filter.Seed)
	}
	return points, nil
}

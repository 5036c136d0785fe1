package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID           int64
	StartedAt    string
	Version      string
	DurationMS   int64
	CityCount    int
	WarCount     int
	DetailFailed int
	ErrorCount   int
	WarningCount int
}

// RecentRuns lists the newest runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, version, duration_ms, city_count, war_count,
			details_failed, error_count, warning_count
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Version, &r.DurationMS,
			&r.CityCount, &r.WarCount, &r.DetailFailed, &r.ErrorCount, &r.WarningCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TrendPoint is one sample of a city's pollution/citizen history.
type TrendPoint struct {
	RunID     int64
	ScrapedAt string
	Pollution sql.NullInt64
	Citizens  sql.NullInt64
}

// CityTrend returns one point per run for the named city, oldest first.
func (s *Store) CityTrend(ctx context.Context, name string, limit int) ([]TrendPoint, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, scraped_at, pollution, citizens
		 FROM cities WHERE name = ?
		 ORDER BY run_id DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query city trend: %w", err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.RunID, &p.ScrapedAt, &p.Pollution, &p.Citizens); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// WarRecord is one persisted war row.
type WarRecord struct {
	RunID      int64
	Attacker   string
	Defender   string
	Missiles   sql.NullInt64
	BothActive bool
}

// WarHistory lists persisted wars, newest run first.
func (s *Store) WarHistory(ctx context.Context, limit int) ([]WarRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, attacker, defender, missiles, both_active
		 FROM wars ORDER BY run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query wars: %w", err)
	}
	defer rows.Close()

	var out []WarRecord
	for rows.Next() {
		var w WarRecord
		if err := rows.Scan(&w.RunID, &w.Attacker, &w.Defender, &w.Missiles, &w.BothActive); err != nil {
			return nil, fmt.Errorf("scan war: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

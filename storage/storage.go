// Package storage persists scrape runs into a sqlite database for
// historical trend analysis. Every record is keyed by the run id assigned
// in SaveScrapeRun; the scraper core treats that id as opaque.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/switchlove/FragileCityScraper/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	version TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	concurrency INTEGER NOT NULL,
	city_count INTEGER NOT NULL,
	war_count INTEGER NOT NULL,
	details_ok INTEGER NOT NULL,
	details_failed INTEGER NOT NULL,
	error_count INTEGER NOT NULL,
	warning_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS global_stats (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	year INTEGER,
	day INTEGER,
	total_cities INTEGER,
	active_cities INTEGER,
	total_citizens REAL,
	total_pollution REAL,
	daily_pollution REAL
);

CREATE TABLE IF NOT EXISTS cities (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	pollution INTEGER,
	citizens INTEGER,
	verified INTEGER NOT NULL,
	patron INTEGER NOT NULL,
	contributor INTEGER NOT NULL,
	scraped_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cities_name ON cities(name);

CREATE TABLE IF NOT EXISTS wars (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	attacker TEXT NOT NULL,
	attacker_url TEXT NOT NULL,
	defender TEXT NOT NULL,
	defender_url TEXT NOT NULL,
	missiles INTEGER,
	attacker_active INTEGER NOT NULL,
	defender_active INTEGER NOT NULL,
	both_active INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS city_details (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	region TEXT,
	year INTEGER,
	day INTEGER,
	season TEXT,
	citizens INTEGER,
	stats TEXT,
	job_levels TEXT,
	resources TEXT,
	buildings TEXT,
	sanctions TEXT,
	error TEXT,
	scraped_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_city_details_name ON city_details(name);
`

// Store wraps the sqlite connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serializes writers; a single connection avoids lock errors.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the schema. Safe to call on every start.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveScrapeRun inserts the run metadata and returns the new run id.
func (s *Store) SaveScrapeRun(ctx context.Context, meta models.RunMetadata) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, version, duration_ms, concurrency, city_count,
			war_count, details_ok, details_failed, error_count, warning_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		meta.Version,
		meta.Duration.Milliseconds(),
		meta.Concurrency,
		meta.CityCount,
		meta.WarCount,
		meta.DetailOK,
		meta.DetailFailed,
		meta.ErrorCount,
		meta.WarningCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// SaveGlobalStats inserts the world counters for runID.
func (s *Store) SaveGlobalStats(ctx context.Context, runID int64, stats models.GlobalStats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO global_stats (run_id, year, day, total_cities, active_cities,
			total_citizens, total_pollution, daily_pollution)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, stats.Year, stats.Day, stats.TotalCities, stats.ActiveCities,
		stats.TotalCitizens, stats.TotalPollution, stats.DailyPollution,
	)
	if err != nil {
		return fmt.Errorf("insert global stats: %w", err)
	}
	return nil
}

// SaveCities inserts the city listings for runID in one transaction.
func (s *Store) SaveCities(ctx context.Context, runID int64, cities []models.CityListing) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO cities (run_id, name, url, pollution, citizens,
				verified, patron, contributor, scraped_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, city := range cities {
			if _, err := stmt.ExecContext(ctx,
				runID, city.Name, city.URL, city.Pollution, city.Citizens,
				city.Verified, city.Patron, city.Contributor,
				city.ScrapedAt.UTC().Format("2006-01-02 15:04:05"),
			); err != nil {
				return fmt.Errorf("insert city %s: %w", city.Name, err)
			}
		}
		return nil
	})
}

// SaveWars inserts the wars for runID in one transaction.
func (s *Store) SaveWars(ctx context.Context, runID int64, wars []models.War) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO wars (run_id, attacker, attacker_url, defender, defender_url,
				missiles, attacker_active, defender_active, both_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, war := range wars {
			if _, err := stmt.ExecContext(ctx,
				runID, war.Attacker, war.AttackerURL, war.Defender, war.DefenderURL,
				war.Missiles, war.AttackerActive, war.DefenderActive, war.BothActive,
			); err != nil {
				return fmt.Errorf("insert war %s vs %s: %w", war.Attacker, war.Defender, err)
			}
		}
		return nil
	})
}

// SaveCityDetails inserts the per-city snapshots for runID. Nested maps and
// sequences are stored as JSON text columns; trends over individual stats
// are extracted at query time.
func (s *Store) SaveCityDetails(ctx context.Context, runID int64, details []models.CityDetail) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO city_details (run_id, name, url, region, year, day, season,
				citizens, stats, job_levels, resources, buildings, sanctions, error, scraped_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, detail := range details {
			stats, err := marshalColumn(detail.Stats)
			if err != nil {
				return fmt.Errorf("encode stats for %s: %w", detail.Name, err)
			}
			jobLevels, err := marshalColumn(detail.JobLevels)
			if err != nil {
				return fmt.Errorf("encode job levels for %s: %w", detail.Name, err)
			}
			resources, err := marshalColumn(detail.Resources)
			if err != nil {
				return fmt.Errorf("encode resources for %s: %w", detail.Name, err)
			}
			buildings, err := marshalColumn(detail.Buildings)
			if err != nil {
				return fmt.Errorf("encode buildings for %s: %w", detail.Name, err)
			}
			sanctions, err := marshalColumn(detail.Sanctions)
			if err != nil {
				return fmt.Errorf("encode sanctions for %s: %w", detail.Name, err)
			}

			if _, err := stmt.ExecContext(ctx,
				runID, detail.Name, detail.URL, detail.Region,
				detail.Year, detail.Day, detail.Season, detail.Citizens,
				stats, jobLevels, resources, buildings, sanctions,
				detail.Error,
				detail.ScrapedAt.UTC().Format("2006-01-02 15:04:05"),
			); err != nil {
				return fmt.Errorf("insert detail %s: %w", detail.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func marshalColumn(v any) (any, error) {
	switch value := v.(type) {
	case map[string]models.Quantity:
		if len(value) == 0 {
			return nil, nil
		}
	case map[string]int64:
		if len(value) == 0 {
			return nil, nil
		}
	case []models.JobLevel:
		if len(value) == 0 {
			return nil, nil
		}
	case []string:
		if len(value) == 0 {
			return nil, nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

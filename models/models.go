// Package models defines data structures for the scraper.
package models

import "time"

// GlobalStats is the world-level snapshot embedded in the city list page.
// Every field is optional; a nil pointer means the counter was not found on
// the page, which is not an error.
type GlobalStats struct {
	Year           *int64   `json:"year,omitempty"`
	Day            *int64   `json:"day,omitempty"`
	TotalCities    *int64   `json:"total_cities,omitempty"`
	ActiveCities   *int64   `json:"active_cities,omitempty"`
	TotalCitizens  *float64 `json:"total_citizens,omitempty"`
	TotalPollution *float64 `json:"total_pollution,omitempty"`
	DailyPollution *float64 `json:"daily_pollution,omitempty"`
}

// CityListing is one row of the city index.
type CityListing struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Pollution   *int64    `json:"pollution"`
	Citizens    *int64    `json:"citizens"`
	Verified    bool      `json:"verified"`
	Patron      bool      `json:"patron"`
	Contributor bool      `json:"contributor"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// War is one attacker/defender pair from the wars page. The *Active flags
// are enrichments computed by the orchestrator once the run's city set is
// known, not by the extractor.
type War struct {
	Attacker       string `json:"attacker"`
	AttackerURL    string `json:"attacker_url"`
	Defender       string `json:"defender"`
	DefenderURL    string `json:"defender_url"`
	Missiles       *int64 `json:"missiles"`
	AttackerActive bool   `json:"attacker_active"`
	DefenderActive bool   `json:"defender_active"`
	BothActive     bool   `json:"both_active"`
}

// JobLevel is one row of the per-city jobs/taxes table.
type JobLevel struct {
	Level         int64    `json:"level"`
	TaxRate       *float64 `json:"tax_rate"`
	Citizens      *int64   `json:"citizens"`
	TotalJobs     *int64   `json:"total_jobs"`
	AvailableJobs *int64   `json:"available_jobs"`
}

// CityDetail is the deep per-city snapshot. When the fetch fails after all
// retries the record degenerates to {Name, URL, Error, ScrapedAt}; Failed
// reports which variant this is.
type CityDetail struct {
	Name      string              `json:"name"`
	URL       string              `json:"url"`
	Region    string              `json:"region,omitempty"`
	Year      *int64              `json:"year,omitempty"`
	Day       *int64              `json:"day,omitempty"`
	Season    string              `json:"season,omitempty"`
	Citizens  *int64              `json:"citizens,omitempty"`
	Stats     map[string]Quantity `json:"stats,omitempty"`
	JobLevels []JobLevel          `json:"job_levels,omitempty"`
	Resources map[string]Quantity `json:"resources,omitempty"`
	Buildings map[string]int64    `json:"buildings,omitempty"`
	Sanctions []string            `json:"sanctions,omitempty"`
	Error     string              `json:"error,omitempty"`
	ScrapedAt time.Time           `json:"scraped_at"`
}

// Failed reports whether this is the failed-fetch variant.
func (d *CityDetail) Failed() bool {
	return d.Error != ""
}

// RunMetadata describes one complete orchestrator run. The persistence
// layer assigns the opaque run id; the core only produces this payload.
type RunMetadata struct {
	StartedAt    time.Time     `json:"started_at"`
	Version      string        `json:"version"`
	Duration     time.Duration `json:"duration"`
	Concurrency  int           `json:"concurrency"`
	CityCount    int           `json:"city_count"`
	WarCount     int           `json:"war_count"`
	DetailOK     int           `json:"details_succeeded"`
	DetailFailed int           `json:"details_failed"`
	ErrorCount   int           `json:"error_count"`
	WarningCount int           `json:"warning_count"`
}

// RunResult is the full bundle handed to the flat-file writers and the
// persistence collaborator after a run completes.
type RunResult struct {
	Metadata RunMetadata   `json:"metadata"`
	Stats    GlobalStats   `json:"global_stats"`
	Cities   []CityListing `json:"cities"`
	Wars     []War         `json:"wars"`
	Details  []CityDetail  `json:"details"`
	Errors   []RunError    `json:"errors,omitempty"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

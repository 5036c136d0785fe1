// Package scraper contains the extraction pipeline: transport with bounded
// retry, windowed batch scheduling, the page extractors, and the run
// orchestrator that sequences them into one snapshot.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/switchlove/FragileCityScraper/config"
	"github.com/switchlove/FragileCityScraper/models"
)

// Version is stamped into every run's metadata.
const Version = "1.2.0"

// Scraper drives one full run: city list, wars, enrichment, per-city
// details, metadata assembly.
type Scraper struct {
	cfg     *config.Config
	client  *Client
	Metrics *Metrics
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	metrics := NewMetrics()
	client, err := NewClient(cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("transport client: %w", err)
	}
	return &Scraper{
		cfg:     cfg,
		client:  client,
		Metrics: metrics,
	}, nil
}

// Client exposes the transport, mainly so tests can intercept it.
func (s *Scraper) Client() *Client {
	return s.client
}

// Run executes the full orchestration pass. Only a list or wars fetch that
// exhausts its retries fails the run; every per-city failure degrades to a
// failed-variant record instead.
func (s *Scraper) Run(ctx context.Context) (*models.RunResult, error) {
	start := time.Now()
	diag := models.NewDiagnostics()

	listURL := s.cfg.CityListURL()

	listDoc, err := s.client.FetchDocument(ctx, listURL, "list")
	if err != nil {
		return nil, fmt.Errorf("fetch city list: %w", err)
	}
	cities, stats := ExtractCityList(listDoc, s.cfg.BaseURL, diag)
	slog.Info("city list extracted", slog.Int("cities", len(cities)))

	warsDoc, err := s.warsDocument(ctx, listURL, listDoc)
	if err != nil {
		return nil, fmt.Errorf("fetch wars: %w", err)
	}
	wars := ExtractWars(warsDoc, s.cfg.BaseURL, diag)

	activeCities := make(map[string]struct{}, len(cities))
	for _, city := range cities {
		activeCities[city.Name] = struct{}{}
	}
	EnrichWars(wars, activeCities)
	slog.Info("wars extracted", slog.Int("wars", len(wars)))

	// EnrichWars only flips flags on existing entries, so both counters are
	// final once enrichment completes.
	s.Metrics.IncRecords("city", len(cities))
	s.Metrics.IncRecords("war", len(wars))

	details, batchErrs := ProcessBatch(ctx, cities, func(ctx context.Context, city models.CityListing) (models.CityDetail, error) {
		return s.scrapeCityDetail(ctx, city, diag), nil
	}, s.cfg.Concurrency, s.cfg.BatchPause)
	for _, be := range batchErrs {
		diag.Error(be.Item.Name, be.Err)
	}

	failed := 0
	for i := range details {
		if details[i].Failed() {
			failed++
		}
	}

	for _, warning := range diag.Warnings() {
		s.Metrics.IncWarning(string(warning.Type))
	}

	result := &models.RunResult{
		Metadata: models.RunMetadata{
			StartedAt:    start,
			Version:      Version,
			Duration:     time.Since(start),
			Concurrency:  s.cfg.Concurrency,
			CityCount:    len(cities),
			WarCount:     len(wars),
			DetailOK:     len(details) - failed,
			DetailFailed: failed,
			ErrorCount:   len(diag.Errors()),
			WarningCount: len(diag.Warnings()),
		},
		Stats:    stats,
		Cities:   cities,
		Wars:     wars,
		Details:  details,
		Errors:   diag.Errors(),
		Warnings: diag.Warnings(),
	}

	slog.Info("run complete",
		slog.Duration("duration", result.Metadata.Duration),
		slog.Int("cities", result.Metadata.CityCount),
		slog.Int("wars", result.Metadata.WarCount),
		slog.Int("detail_failures", failed),
		slog.Int("warnings", result.Metadata.WarningCount),
	)
	return result, nil
}

// warsDocument returns the document the wars list is read from. The wars
// list lives on the index page; by default it is re-fetched so the wars
// snapshot is as fresh as possible, at the cost of a second request.
func (s *Scraper) warsDocument(ctx context.Context, listURL string, listDoc *goquery.Document) (*goquery.Document, error) {
	if s.cfg.ReuseListFetch {
		if doc, ok := s.client.CachedDocument(listURL); ok {
			slog.Debug("reusing cached index document for wars")
			return doc, nil
		}
		return listDoc, nil
	}
	return s.client.FetchDocument(ctx, listURL, "wars")
}

// scrapeCityDetail never returns an error: a fetch that exhausts retries is
// converted to the failed record variant and noted in the run's error list,
// and the batch moves on.
func (s *Scraper) scrapeCityDetail(ctx context.Context, city models.CityListing, diag *models.Diagnostics) models.CityDetail {
	url := s.cfg.CityDetailURL(city.Name)

	doc, err := s.client.FetchDocument(ctx, url, "detail")
	if err != nil {
		slog.Warn("city detail fetch failed",
			slog.String("city", city.Name),
			slog.Any("error", err),
		)
		diag.Error(city.Name, err)
		return *FailedCityDetail(city.Name, url, err)
	}

	detail := ExtractCityDetail(doc, city.Name, url, diag)
	s.Metrics.IncRecords("detail", 1)
	return *detail
}

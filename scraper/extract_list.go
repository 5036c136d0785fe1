package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/switchlove/FragileCityScraper/models"
	"github.com/switchlove/FragileCityScraper/parser"
)

// ExtractCityList walks the index document and returns the accepted city
// rows plus whatever world-level counters the page exposes. Absent counters
// stay nil; the page drops and reorders them freely between game updates.
func ExtractCityList(doc *goquery.Document, baseURL string, diag *models.Diagnostics) ([]models.CityListing, models.GlobalStats) {
	stats := extractGlobalStats(doc)

	var cities []models.CityListing
	doc.Find("table.city-list tbody tr").Each(func(_ int, row *goquery.Selection) {
		city := extractCityRow(row, baseURL)
		if parser.ValidateCity(city, diag) {
			cities = append(cities, *city)
		}
	})
	return cities, stats
}

func extractCityRow(row *goquery.Selection, baseURL string) *models.CityListing {
	link := row.Find("a.city-name").First()
	city := &models.CityListing{
		Name:      strings.TrimSpace(link.Text()),
		ScrapedAt: time.Now(),
	}
	if href, ok := link.Attr("href"); ok {
		city.URL = absoluteURL(baseURL, href)
	}

	// Field lookup is by tooltip text, not column position, so the list
	// survives column reshuffles.
	if text := row.Find(`[title*="Pollution"]`).First().Text(); text != "" {
		if value, ok := parser.ExtractInteger(text); ok {
			city.Pollution = &value
		}
	}
	if text := row.Find(`[title*="Citizens"]`).First().Text(); text != "" {
		if value, ok := parser.ExtractInteger(text); ok {
			city.Citizens = &value
		}
	}

	city.Verified = row.Find(`img[title*="Verified"]`).Length() > 0
	city.Patron = row.Find(`img[title*="Patron"]`).Length() > 0
	city.Contributor = row.Find(`img[title*="Contributor"]`).Length() > 0
	return city
}

func extractGlobalStats(doc *goquery.Document) models.GlobalStats {
	var stats models.GlobalStats
	doc.Find(".world-stats span").Each(func(_ int, span *goquery.Selection) {
		text := strings.TrimSpace(span.Text())
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "year"):
			stats.Year = intAfterLabel(text)
		case strings.Contains(lower, "daily"):
			stats.DailyPollution = magnitudeAfterLabel(text)
		case strings.Contains(lower, "day"):
			stats.Day = intAfterLabel(text)
		case strings.Contains(lower, "active"):
			stats.ActiveCities = intAfterLabel(text)
		case strings.Contains(lower, "cities"):
			stats.TotalCities = intAfterLabel(text)
		case strings.Contains(lower, "citizens"):
			stats.TotalCitizens = magnitudeAfterLabel(text)
		case strings.Contains(lower, "pollution"):
			stats.TotalPollution = magnitudeAfterLabel(text)
		}
	})
	return stats
}

func intAfterLabel(text string) *int64 {
	if value, ok := parser.ExtractInteger(text); ok {
		return &value
	}
	return nil
}

// magnitudeAfterLabel parses the first magnitude-shaped token in a labelled
// counter like "Citizens 8.4M", wherever the label sits.
func magnitudeAfterLabel(text string) *float64 {
	for _, field := range strings.Fields(text) {
		if value, ok := parser.ParseMagnitude(field); ok {
			return &value
		}
	}
	return nil
}

func absoluteURL(baseURL, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
}

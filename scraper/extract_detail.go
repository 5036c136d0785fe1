package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/switchlove/FragileCityScraper/models"
	"github.com/switchlove/FragileCityScraper/parser"
)

var (
	levelPattern     = regexp.MustCompile(`[Ll]evel\s+(\d+)`)
	taxPattern       = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*%`)
	citizensPattern  = regexp.MustCompile(`([\d,]+)\s+citizens`)
	jobsPattern      = regexp.MustCompile(`([\d,]+)\s+jobs`)
	availablePattern = regexp.MustCompile(`\(([\d,]+)\s+available\)`)
)

// ExtractCityDetail transforms one fetched per-city document into the deep
// snapshot record. Missing optional sections yield empty containers, never
// failures; validation afterwards may warn but never suppresses the record.
func ExtractCityDetail(doc *goquery.Document, name, url string, diag *models.Diagnostics) *models.CityDetail {
	detail := &models.CityDetail{
		Name:      strings.TrimSpace(doc.Find("h1.city-name").First().Text()),
		URL:       url,
		Stats:     map[string]models.Quantity{},
		Resources: map[string]models.Quantity{},
		Buildings: map[string]int64{},
		ScrapedAt: time.Now(),
	}
	if detail.Name == "" {
		// Heading occasionally carries markup the game renders client-side;
		// the requested name still identifies the snapshot.
		detail.Name = name
	}

	extractOverview(doc, detail)
	extractStatCells(doc, detail)
	extractJobLevels(doc, detail, diag)
	extractResources(doc, detail)
	extractBuildings(doc, detail)
	extractSanctions(doc, detail)

	parser.ValidateCityDetail(detail, diag)
	return detail
}

// FailedCityDetail is the degenerate variant recorded when the per-city
// fetch exhausts its retries.
func FailedCityDetail(name, url string, err error) *models.CityDetail {
	return &models.CityDetail{
		Name:      name,
		URL:       url,
		Error:     err.Error(),
		ScrapedAt: time.Now(),
	}
}

// extractOverview reads the two-row label/value table: row one names the
// columns, row two carries the values, matched by label text.
func extractOverview(doc *goquery.Document, detail *models.CityDetail) {
	table := doc.Find("table.overview").First()
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return
	}

	labels := rows.Eq(0).Find("th, td")
	values := rows.Eq(1).Find("th, td")

	labels.Each(func(i int, label *goquery.Selection) {
		if i >= values.Length() {
			return
		}
		value := strings.TrimSpace(values.Eq(i).Text())
		switch key := strings.ToLower(strings.TrimSpace(label.Text())); {
		case strings.Contains(key, "region"):
			detail.Region = value
		case strings.Contains(key, "year"):
			detail.Year = intAfterLabel(value)
		case strings.Contains(key, "day"):
			detail.Day = intAfterLabel(value)
		case strings.Contains(key, "season"):
			detail.Season = value
		case strings.Contains(key, "citizens"):
			detail.Citizens = intAfterLabel(value)
		}
	})
}

func extractStatCells(doc *goquery.Document, detail *models.CityDetail) {
	doc.Find(".stat-cell").Each(func(_ int, cell *goquery.Selection) {
		name, ok := cell.Attr("title")
		if !ok || strings.TrimSpace(name) == "" {
			return
		}
		if quantity, ok := parser.ParseValueOrRange(cell.Text()); ok {
			detail.Stats[strings.TrimSpace(name)] = quantity
		}
	})
}

// extractJobLevels parses the rows under the "Jobs" heading. The counts in
// a row can contain decimal-look-alike substrings that fool the tax
// pattern, so the tax figure is best-effort: a row without a recognizable
// percentage keeps a nil rate and queues an incomplete-details warning.
func extractJobLevels(doc *goquery.Document, detail *models.CityDetail, diag *models.Diagnostics) {
	section := headingSection(doc, "Jobs")
	if section == nil {
		return
	}

	section.Find(".job-level").Each(func(_ int, row *goquery.Selection) {
		text := row.Text()
		levelMatch := levelPattern.FindStringSubmatch(text)
		if levelMatch == nil {
			return
		}
		level, ok := parser.ExtractInteger(levelMatch[1])
		if !ok {
			return
		}

		jobLevel := models.JobLevel{Level: level}
		if m := taxPattern.FindStringSubmatch(text); m != nil {
			if rate, ok := parser.ParseMagnitude(m[1]); ok {
				jobLevel.TaxRate = &rate
			}
		}
		if jobLevel.TaxRate == nil {
			diag.Warn(models.WarnIncompleteCityDetails,
				"job level without a parseable tax rate", detail.Name)
		}
		if m := citizensPattern.FindStringSubmatch(text); m != nil {
			if value, ok := parser.ExtractInteger(m[1]); ok {
				jobLevel.Citizens = &value
			}
		}
		if m := jobsPattern.FindStringSubmatch(text); m != nil {
			if value, ok := parser.ExtractInteger(m[1]); ok {
				jobLevel.TotalJobs = &value
			}
		}
		if m := availablePattern.FindStringSubmatch(text); m != nil {
			if value, ok := parser.ExtractInteger(m[1]); ok {
				jobLevel.AvailableJobs = &value
			}
		}
		detail.JobLevels = append(detail.JobLevels, jobLevel)
	})
}

func extractResources(doc *goquery.Document, detail *models.CityDetail) {
	section := headingSection(doc, "Resources")
	if section == nil {
		return
	}
	section.Find(".resource").Each(func(_ int, res *goquery.Selection) {
		name := strings.TrimSpace(res.Find(".name").Text())
		if name == "" {
			return
		}
		if quantity, ok := parser.ParseValueOrRange(res.Find(".value").Text()); ok {
			detail.Resources[name] = quantity
		}
	})
}

// extractBuildings records an explicit zero for a building section whose
// count cell is empty or missing: "zero of this building" is meaningful
// history, distinct from the section not being found at all.
func extractBuildings(doc *goquery.Document, detail *models.CityDetail) {
	section := headingSection(doc, "Buildings")
	if section == nil {
		return
	}
	section.Find(".building").Each(func(_ int, building *goquery.Selection) {
		name := strings.TrimSpace(building.Find(".name").Text())
		if name == "" {
			return
		}
		count := int64(0)
		if value, ok := parser.ExtractInteger(building.Find(".count").Text()); ok && value >= 0 {
			count = value
		}
		detail.Buildings[name] = count
	})
}

func extractSanctions(doc *goquery.Document, detail *models.CityDetail) {
	section := headingSection(doc, "Sanctions")
	if section == nil {
		return
	}
	section.Find("a").Each(func(_ int, link *goquery.Selection) {
		if name := strings.TrimSpace(link.Text()); name != "" {
			detail.Sanctions = append(detail.Sanctions, name)
		}
	})
}

// headingSection finds the h3 whose text contains label and returns its
// next sibling container, the convention every detail-page section follows.
func headingSection(doc *goquery.Document, label string) *goquery.Selection {
	var section *goquery.Selection
	doc.Find("h3").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(heading.Text()), strings.ToLower(label)) {
			section = heading.Next()
			return false
		}
		return true
	})
	return section
}

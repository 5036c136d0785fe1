package scraper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/switchlove/FragileCityScraper/config"
)

const indexFixture = `<html><body>
<div class="world-stats">
  <span>Year 84</span>
  <span>Pollution 373.69k</span>
</div>
<table class="city-list"><tbody>
  <tr>
    <td><a class="city-name" href="/city/Arkport">Arkport</a></td>
    <td title="Pollution">-240</td>
    <td title="Citizens">1,800</td>
  </tr>
  <tr>
    <td><a class="city-name" href="/city/Bellmoor">Bellmoor</a></td>
    <td title="Pollution">120</td>
    <td title="Citizens">950</td>
  </tr>
</tbody></table>
<div class="war-entry">
  <a class="attacker" href="/city/Arkport">Arkport</a>
  <a class="defender" href="/city/Outsider">Outsider</a>
  <span class="missiles">5 missiles</span>
</div>
</body></html>`

const detailFixture = `<html><body>
<h1 class="city-name">%NAME%</h1>
<table class="overview">
  <tr><th>Region</th><th>Citizens</th></tr>
  <tr><td>North Reach</td><td>1,800</td></tr>
</table>
<div class="stat-cell" title="Power">10/20</div>
<h3>Buildings</h3>
<div><div class="building"><span class="name">Windmill</span></div></div>
</body></html>`

func testScraper(t *testing.T, mutate func(*config.Config)) *Scraper {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Concurrency = 2
	cfg.BatchPause = 0
	cfg.MaxRetries = 0
	cfg.RetryDelay = time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	httpmock.ActivateNonDefault(s.Client().HTTPClient().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return s
}

func registerDetail(name string, status int) {
	url := "https://fragilecity.io/city/" + name
	if status == 200 {
		body := strings.ReplaceAll(detailFixture, "%NAME%", name)
		httpmock.RegisterResponder("GET", url, httpmock.NewStringResponder(200, body))
		return
	}
	httpmock.RegisterResponder("GET", url, httpmock.NewStringResponder(status, "error"))
}

func TestRunFullScrape(t *testing.T) {
	s := testScraper(t, nil)

	httpmock.RegisterResponder("GET", "https://fragilecity.io/cities",
		httpmock.NewStringResponder(200, indexFixture))
	registerDetail("Arkport", 200)
	registerDetail("Bellmoor", 404)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Metadata.CityCount != 2 {
		t.Fatalf("city count = %d", result.Metadata.CityCount)
	}
	if result.Stats.Year == nil || *result.Stats.Year != 84 {
		t.Fatalf("global year = %v", result.Stats.Year)
	}

	// wars enriched against the run's active city set
	if len(result.Wars) != 1 {
		t.Fatalf("wars = %d", len(result.Wars))
	}
	war := result.Wars[0]
	if !war.AttackerActive || war.DefenderActive || war.BothActive {
		t.Fatalf("enrichment = %v/%v/%v", war.AttackerActive, war.DefenderActive, war.BothActive)
	}

	// every city yields a detail record; the 404 degrades to the failed variant
	if len(result.Details) != 2 {
		t.Fatalf("details = %d", len(result.Details))
	}
	var okDetail, failedDetail int
	for _, d := range result.Details {
		if d.Failed() {
			failedDetail++
			if d.Name != "Bellmoor" || d.Error == "" || d.ScrapedAt.IsZero() {
				t.Fatalf("failed variant = %+v", d)
			}
		} else {
			okDetail++
			if count, ok := d.Buildings["Windmill"]; !ok || count != 0 {
				t.Fatalf("explicit zero building lost: %+v", d.Buildings)
			}
		}
	}
	if okDetail != 1 || failedDetail != 1 {
		t.Fatalf("detail split = %d ok / %d failed", okDetail, failedDetail)
	}
	if result.Metadata.DetailOK != 1 || result.Metadata.DetailFailed != 1 {
		t.Fatalf("metadata split = %+v", result.Metadata)
	}

	// the city's failure lands in the run error list without failing the run
	if len(result.Errors) != 1 || result.Errors[0].Item != "Bellmoor" {
		t.Fatalf("errors = %+v", result.Errors)
	}

	// record counters match the enriched snapshot exactly
	if got := testutil.ToFloat64(s.Metrics.RecordsTotal.WithLabelValues("city")); got != 2 {
		t.Fatalf("city records metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(s.Metrics.RecordsTotal.WithLabelValues("war")); got != 1 {
		t.Fatalf("war records metric = %v, want 1", got)
	}

	// the index is fetched twice: once for the list, once for wars
	info := httpmock.GetCallCountInfo()
	if got := info["GET https://fragilecity.io/cities"]; got != 2 {
		t.Fatalf("index fetches = %d, want 2", got)
	}
}

func TestRunReusesListFetchWhenConfigured(t *testing.T) {
	s := testScraper(t, func(cfg *config.Config) {
		cfg.ReuseListFetch = true
	})

	httpmock.RegisterResponder("GET", "https://fragilecity.io/cities",
		httpmock.NewStringResponder(200, indexFixture))
	registerDetail("Arkport", 200)
	registerDetail("Bellmoor", 200)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Wars) != 1 {
		t.Fatalf("wars = %d", len(result.Wars))
	}

	info := httpmock.GetCallCountInfo()
	if got := info["GET https://fragilecity.io/cities"]; got != 1 {
		t.Fatalf("index fetches = %d, want 1 with reuse enabled", got)
	}
}

func TestRunFailsWhenListFetchExhaustsRetries(t *testing.T) {
	s := testScraper(t, func(cfg *config.Config) {
		cfg.MaxRetries = 1
	})

	httpmock.RegisterResponder("GET", "https://fragilecity.io/cities",
		httpmock.NewStringResponder(500, "down"))

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatalf("run should fail when the list fetch exhausts retries")
	}
	if got := httpmock.GetTotalCallCount(); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
}

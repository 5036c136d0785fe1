package scraper

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/switchlove/FragileCityScraper/config"
)

func testClient(t *testing.T, mutate func(*config.Config)) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.RetryDelayMax = 10 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	client, err := NewClient(cfg, NewMetrics())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	httpmock.ActivateNonDefault(client.HTTPClient().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestFetchDocumentAttachesIdentifyingHeaders(t *testing.T) {
	client := testClient(t, nil)

	var gotUA, gotContact string
	httpmock.RegisterResponder("GET", "https://fragilecity.io/cities",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			gotContact = req.Header.Get("X-Scraper-Contact")
			return httpmock.NewStringResponse(200, "<html><body></body></html>"), nil
		})

	if _, err := client.FetchDocument(context.Background(), "https://fragilecity.io/cities", "list"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA == "" || gotContact == "" {
		t.Fatalf("identifying headers missing: ua=%q contact=%q", gotUA, gotContact)
	}
}

func TestFetchDocumentRetriesThenPropagates(t *testing.T) {
	client := testClient(t, func(cfg *config.Config) {
		cfg.MaxRetries = 3
	})

	httpmock.RegisterResponder("GET", "https://fragilecity.io/cities",
		httpmock.NewStringResponder(500, "boom"))

	_, err := client.FetchDocument(context.Background(), "https://fragilecity.io/cities", "list")
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}

	// at most maxRetries + 1 total attempts
	if got := httpmock.GetTotalCallCount(); got != 4 {
		t.Fatalf("attempts = %d, want 4", got)
	}
}

func TestFetchDocumentRecoversAfterTransientFailure(t *testing.T) {
	client := testClient(t, func(cfg *config.Config) {
		cfg.MaxRetries = 2
	})

	calls := 0
	httpmock.RegisterResponder("GET", "https://fragilecity.io/cities",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(503, "busy"), nil
			}
			return httpmock.NewStringResponse(200, `<html><body><h1 class="city-name">Arkport</h1></body></html>`), nil
		})

	doc, err := client.FetchDocument(context.Background(), "https://fragilecity.io/cities", "list")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := doc.Find("h1.city-name").Text(); got != "Arkport" {
		t.Fatalf("parsed document text = %q", got)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestFetchDocumentNotFoundClassification(t *testing.T) {
	client := testClient(t, func(cfg *config.Config) {
		cfg.MaxRetries = 0
	})

	httpmock.RegisterResponder("GET", "https://fragilecity.io/city/Ghost",
		httpmock.NewStringResponder(404, "gone"))

	_, err := client.FetchDocument(context.Background(), "https://fragilecity.io/city/Ghost", "detail")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := errorTypeLabel(err); got != "not_found" {
		t.Fatalf("error label = %q, want not_found", got)
	}
}

func TestBackoffDoubling(t *testing.T) {
	client := testClient(t, func(cfg *config.Config) {
		cfg.RetryDelay = 200 * time.Millisecond
		cfg.RetryDelayMax = 10 * time.Second
	})

	// delay before attempt k is RetryDelay * 2^(k-1)
	for k, want := range map[int]time.Duration{
		1: 200 * time.Millisecond,
		2: 400 * time.Millisecond,
		3: 800 * time.Millisecond,
	} {
		if got := client.backoff(k); got != want {
			t.Fatalf("backoff(%d) = %v, want %v", k, got, want)
		}
	}
}

func TestBackoffCapped(t *testing.T) {
	client := testClient(t, func(cfg *config.Config) {
		cfg.RetryDelay = 200 * time.Millisecond
		cfg.RetryDelayMax = 500 * time.Millisecond
	})

	if got := client.backoff(6); got > 500*time.Millisecond {
		t.Fatalf("backoff(6) = %v exceeds cap", got)
	}
}

func TestCachedDocument(t *testing.T) {
	client := testClient(t, nil)

	httpmock.RegisterResponder("GET", "https://fragilecity.io/cities",
		httpmock.NewStringResponder(200, "<html><body></body></html>"))

	if _, ok := client.CachedDocument("https://fragilecity.io/cities"); ok {
		t.Fatalf("cache should start empty")
	}
	if _, err := client.FetchDocument(context.Background(), "https://fragilecity.io/cities", "list"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, ok := client.CachedDocument("https://fragilecity.io/cities"); !ok {
		t.Fatalf("fetched document should be cached")
	}
}

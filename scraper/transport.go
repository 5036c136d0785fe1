package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/switchlove/FragileCityScraper/config"
)

const documentCacheSize = 16

// Client performs single logical page fetches with bounded retry and
// exponential backoff. Every request carries the fixed identifying header
// set; the game's admins asked scrapers to be recognizable.
type Client struct {
	http    *resty.Client
	cfg     *config.Config
	metrics *Metrics
	cache   *lru.Cache[string, *goquery.Document]
}

// NewClient builds a transport client configured from cfg.
func NewClient(cfg *config.Config, metrics *Metrics) (*Client, error) {
	cache, err := lru.New[string, *goquery.Document](documentCacheSize)
	if err != nil {
		return nil, fmt.Errorf("document cache: %w", err)
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("X-Scraper-Contact", cfg.ContactHeader).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Client{
		http:    httpClient,
		cfg:     cfg,
		metrics: metrics,
		cache:   cache,
	}, nil
}

// HTTPClient exposes the underlying client for tests to intercept.
func (c *Client) HTTPClient() *resty.Client {
	return c.http
}

// FetchDocument fetches url and parses it into a document, retrying with
// exponential backoff. At most MaxRetries+1 attempts are issued; the delay
// before attempt k is RetryDelay * 2^(k-1). When attempts are exhausted the
// last transport error is returned unchanged, so callers see the underlying
// failure; each retry has already been logged here.
func (c *Client) FetchDocument(ctx context.Context, url, phase string) (*goquery.Document, error) {
	for attempt := 0; ; attempt++ {
		doc, err := c.fetchOnce(ctx, url, phase)
		if err == nil {
			c.cache.Add(url, doc)
			return doc, nil
		}
		if attempt >= c.cfg.MaxRetries {
			return nil, err
		}

		delay := c.backoff(attempt + 1)
		slog.Warn("fetch failed, retrying",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
		c.metrics.IncRetries()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// CachedDocument returns the last successfully fetched document for url,
// if any. Used when the run is configured to reuse the index fetch for the
// wars phase instead of doubling load on the origin.
func (c *Client) CachedDocument(url string) (*goquery.Document, bool) {
	return c.cache.Get(url)
}

func (c *Client) fetchOnce(ctx context.Context, url, phase string) (*goquery.Document, error) {
	c.metrics.IncRequest(phase)

	start := time.Now()
	res, err := c.http.R().SetContext(ctx).Get(url)
	c.metrics.ObserveDuration(time.Since(start))

	statusCode := 0
	if res != nil {
		statusCode = res.StatusCode()
	}
	if err == nil && statusCode >= 400 {
		err = fmt.Errorf("http status %d for %s", statusCode, url)
	}
	if err != nil {
		classified := classifyError(err, statusCode)
		c.metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		c.metrics.IncError("parse")
		return nil, fmt.Errorf("parse document %s: %w", url, err)
	}
	return doc, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := c.cfg.RetryDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := c.cfg.RetryDelayMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

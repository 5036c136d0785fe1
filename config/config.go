// Package config holds scraper configuration and its environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL        string
	CityListPath   string
	CityDetailPath string // template; the url-encoded city name is appended

	Concurrency int
	BatchPause  time.Duration
	Timeout     time.Duration

	MaxRetries    int
	RetryDelay    time.Duration
	RetryDelayMax time.Duration

	// ReuseListFetch serves the wars fetch from the cached city-list
	// document instead of issuing a second request. Off by default: the
	// fresh request keeps wars as current as possible.
	ReuseListFetch bool

	OutputDir    string
	DatabasePath string

	UserAgent     string
	ContactHeader string

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns conservative defaults tuned for the game's servers.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://fragilecity.io",
		CityListPath:   "/cities",
		CityDetailPath: "/city/",
		Concurrency:    5,
		BatchPause:     2 * time.Second,
		Timeout:        15 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		RetryDelayMax:  30 * time.Second,
		ReuseListFetch: false,
		OutputDir:      "output",
		DatabasePath:   "output/history.db",
		UserAgent:      "FragileCityScraper/1.0 (historical trend archive)",
		ContactHeader:  "https://github.com/switchlove/FragileCityScraper",
		MetricsAddr:    "",
		Verbose:        false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.CityListPath == "" || c.CityDetailPath == "" {
		return fmt.Errorf("page paths cannot be empty")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.BatchPause < 0 {
		return fmt.Errorf("batch pause cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.RetryDelayMax < 0 {
		return fmt.Errorf("retry delay max cannot be negative")
	}
	if c.RetryDelayMax > 0 && c.RetryDelay > c.RetryDelayMax {
		return fmt.Errorf("retry delay (%s) cannot exceed retry delay max (%s)", c.RetryDelay, c.RetryDelayMax)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// CityListURL returns the absolute city index URL. The wars list is
// embedded in the same document and is re-fetched from this URL.
func (c *Config) CityListURL() string {
	return c.BaseURL + c.CityListPath
}

// CityDetailURL returns the absolute per-city URL for name.
func (c *Config) CityDetailURL(name string) string {
	return c.BaseURL + c.CityDetailPath + url.PathEscape(name)
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvBool reads a boolean environment override.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvDuration reads a duration environment override ("500ms", "2s").
func EnvDuration(key string) (time.Duration, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

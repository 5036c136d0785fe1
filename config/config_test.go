package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "negative concurrency",
			mutate: func(cfg *Config) {
				cfg.Concurrency = -1
			},
			wantErr: "concurrency",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "empty detail path",
			mutate: func(cfg *Config) {
				cfg.CityDetailPath = ""
			},
			wantErr: "page paths",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "retry delay above max",
			mutate: func(cfg *Config) {
				cfg.RetryDelay = time.Minute
				cfg.RetryDelayMax = time.Second
			},
			wantErr: "retry delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestCityDetailURLEscapesName(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.CityDetailURL("New Arkport")
	want := "https://fragilecity.io/city/New%20Arkport"
	if got != want {
		t.Fatalf("CityDetailURL = %q, want %q", got, want)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCRAPER_CONCURRENCY", "9")
	value, ok, err := EnvInt("SCRAPER_CONCURRENCY")
	if err != nil || !ok || value != 9 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (9, true, nil)", value, ok, err)
	}

	t.Setenv("SCRAPER_BATCH_PAUSE", "750ms")
	pause, ok, err := EnvDuration("SCRAPER_BATCH_PAUSE")
	if err != nil || !ok || pause != 750*time.Millisecond {
		t.Fatalf("EnvDuration = (%v, %v, %v), want (750ms, true, nil)", pause, ok, err)
	}

	t.Setenv("SCRAPER_REUSE_LIST", "notabool")
	if _, _, err := EnvBool("SCRAPER_REUSE_LIST"); err == nil {
		t.Fatalf("EnvBool should reject %q", "notabool")
	}
}

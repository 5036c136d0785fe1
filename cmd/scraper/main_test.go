package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/switchlove/FragileCityScraper/config"
	"github.com/switchlove/FragileCityScraper/models"
)

func testRunResult() *models.RunResult {
	return &models.RunResult{
		Metadata: models.RunMetadata{
			StartedAt: time.Now(),
			Version:   "test",
			CityCount: 1,
		},
		Cities: []models.CityListing{{Name: "Avalon", URL: "https://fragilecity.io/city/Avalon"}},
	}
}

func TestWriteSnapshotsFailureIsRecordedNotFatal(t *testing.T) {
	// a plain file where the output directory should be makes every write fail
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.OutputDir = blocker
	result := testRunResult()

	writeSnapshots(cfg, result)

	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].Item != "snapshot" {
		t.Fatalf("error item = %q, want %q", result.Errors[0].Item, "snapshot")
	}
	if result.Metadata.ErrorCount != 1 {
		t.Fatalf("metadata error count = %d, want 1", result.Metadata.ErrorCount)
	}
}

func TestWriteSnapshotsFailureDoesNotBlockPersistence(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.OutputDir = blocker
	cfg.DatabasePath = filepath.Join(t.TempDir(), "history.db")
	result := testRunResult()

	writeSnapshots(cfg, result)
	persist(context.Background(), cfg, result)

	// the snapshot failure is the run's only error; the database save succeeded
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1: %+v", len(result.Errors), result.Errors)
	}
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		t.Fatalf("database not written: %v", err)
	}
}

func TestWriteSnapshotsSuccess(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	result := testRunResult()

	writeSnapshots(cfg, result)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	for _, name := range []string{"cities.json", "wars.json", "city_details.json"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

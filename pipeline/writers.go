// Package pipeline writes the per-run flat-file JSON snapshots.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/switchlove/FragileCityScraper/models"
)

// CitiesDocument is the city list snapshot file payload.
type CitiesDocument struct {
	Metadata models.RunMetadata   `json:"metadata"`
	Stats    models.GlobalStats   `json:"global_stats"`
	Cities   []models.CityListing `json:"cities"`
}

// WarsDocument is the wars snapshot file payload.
type WarsDocument struct {
	Metadata models.RunMetadata `json:"metadata"`
	Wars     []models.War       `json:"wars"`
}

// DetailsDocument is the per-city details snapshot file payload, including
// the run's collected errors and warnings.
type DetailsDocument struct {
	Metadata models.RunMetadata  `json:"metadata"`
	Details  []models.CityDetail `json:"details"`
	Errors   []models.RunError   `json:"errors,omitempty"`
	Warnings []models.Warning    `json:"warnings,omitempty"`
}

// SnapshotWriter overwrites the three JSON output documents on every run.
// Each run is an independent snapshot; there is no append or merge.
type SnapshotWriter struct {
	dir string
}

// NewSnapshotWriter writes snapshots under dir.
func NewSnapshotWriter(dir string) *SnapshotWriter {
	return &SnapshotWriter{dir: dir}
}

// WriteAll writes all three documents. A failure on one file does not stop
// the remaining files; the first error is returned.
func (w *SnapshotWriter) WriteAll(result *models.RunResult) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(w.writeJSON("cities.json", CitiesDocument{
		Metadata: result.Metadata,
		Stats:    result.Stats,
		Cities:   result.Cities,
	}))
	record(w.writeJSON("wars.json", WarsDocument{
		Metadata: result.Metadata,
		Wars:     result.Wars,
	}))
	record(w.writeJSON("city_details.json", DetailsDocument{
		Metadata: result.Metadata,
		Details:  result.Details,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}))
	return firstErr
}

func (w *SnapshotWriter) writeJSON(name string, payload any) error {
	path := filepath.Join(w.dir, name)
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := buffer.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

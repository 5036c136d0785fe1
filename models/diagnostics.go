package models

import (
	"sync"
	"time"
)

// WarningType is the closed set of non-fatal data-shape defects.
type WarningType string

const (
	WarnInvalidCityData       WarningType = "InvalidCityData"
	WarnInvalidWarData        WarningType = "InvalidWarData"
	WarnInvalidCityDetails    WarningType = "InvalidCityDetails"
	WarnIncompleteCityDetails WarningType = "IncompleteCityDetails"
)

// Warning records a tolerated data defect. Warnings never block a run.
type Warning struct {
	Type      WarningType `json:"type"`
	Message   string      `json:"message"`
	Context   string      `json:"context,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RunError records a per-item or persistence failure that the run survived.
type RunError struct {
	Item      string    `json:"item"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Diagnostics is the run-scoped accumulator shared by every extractor and
// validator call. Detail extraction runs on goroutines, so access is
// mutex-guarded.
type Diagnostics struct {
	mu       sync.Mutex
	warnings []Warning
	errors   []RunError
}

// NewDiagnostics returns an empty accumulator for one run.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Warn queues a structured warning.
func (d *Diagnostics) Warn(kind WarningType, message, context string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.warnings = append(d.warnings, Warning{
		Type:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
	})
}

// Error records a survivable failure against the item that caused it.
func (d *Diagnostics) Error(item string, err error) {
	if err == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, RunError{
		Item:      item,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

// Warnings returns a copy of the queued warnings.
func (d *Diagnostics) Warnings() []Warning {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// Errors returns a copy of the recorded errors.
func (d *Diagnostics) Errors() []RunError {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RunError, len(d.errors))
	copy(out, d.errors)
	return out
}

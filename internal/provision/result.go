package provision

import (
	"sync"

	"github.com/ucs-toolbox/podcfg/internal/metrics"
	"github.com/ucs-toolbox/podcfg/internal/model"
)

// Outcome is what happened to a single workbook row.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// RowOutcome records the fate of one row.
type RowOutcome struct {
	ObjectType string
	Name       string
	Outcome    Outcome
	Moid       string
	Err        error
}

// Result accumulates per-row outcomes across a run. Safe for concurrent use.
type Result struct {
	mu   sync.Mutex
	rows []RowOutcome

	// ManualProfiles lists the profiles that could not be created or
	// assigned and must be handled by hand in the Intersight UI.
	manualProfiles []model.ProfileRow
}

func (r *Result) created(objectType, name, moid string) {
	metrics.ObjectsCreated.WithLabelValues(objectType).Inc()

	r.append(RowOutcome{ObjectType: objectType, Name: name, Outcome: OutcomeCreated, Moid: moid})
}

func (r *Result) skipped(objectType, name string, err error) {
	metrics.ObjectsSkipped.WithLabelValues(objectType).Inc()

	r.append(RowOutcome{ObjectType: objectType, Name: name, Outcome: OutcomeSkipped, Err: err})
}

func (r *Result) failed(objectType, name string, err error) {
	metrics.ObjectsFailed.WithLabelValues(objectType).Inc()

	r.append(RowOutcome{ObjectType: objectType, Name: name, Outcome: OutcomeFailed, Err: err})
}

func (r *Result) manual(row model.ProfileRow) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.manualProfiles = append(r.manualProfiles, row)
}

func (r *Result) append(row RowOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows = append(r.rows, row)
}

// Rows returns a copy of the per-row outcomes.
func (r *Result) Rows() []RowOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RowOutcome, len(r.rows))
	copy(out, r.rows)

	return out
}

// ManualProfiles returns the profiles left for manual creation.
func (r *Result) ManualProfiles() []model.ProfileRow {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.ProfileRow, len(r.manualProfiles))
	copy(out, r.manualProfiles)

	return out
}

func (r *Result) count(outcome Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, row := range r.rows {
		if row.Outcome == outcome {
			n++
		}
	}

	return n
}

// Created returns how many objects this run created.
func (r *Result) Created() int { return r.count(OutcomeCreated) }

// Skipped returns how many rows were skipped as already present.
func (r *Result) Skipped() int { return r.count(OutcomeSkipped) }

// Failed returns how many rows failed.
func (r *Result) Failed() int { return r.count(OutcomeFailed) }

func (r *Result) AsLogFields() []any {
	return []any{
		"created", r.Created(),
		"skipped", r.Skipped(),
		"failed", r.Failed(),
		"manual", len(r.ManualProfiles()),
	}
}

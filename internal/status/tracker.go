// Package status holds the process-wide state of the latest synchronization run.
//
// The Tracker is shared by the HTTP handlers, the interval scheduler and the
// run goroutine. It keeps exactly one run's state; starting a run overwrites
// whatever the previous one left behind.
package status

import (
	"sync"
	"time"

	"tablesync/internal/model"
)

// Summary is the per-table tally of a finished run.
type Summary struct {
	Synced     int   `json:"synced"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	RowsCopied int64 `json:"rows_copied"`
}

// Status is a point-in-time copy of the tracker state.
type Status struct {
	Running    bool       `json:"running"`
	Message    string     `json:"message"`
	RunID      string     `json:"run_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Tables     *Summary   `json:"tables,omitempty"`
}

// Tracker guards the single-active-run invariant.
type Tracker struct {
	mu      sync.RWMutex
	current Status
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// TryStart marks a run as started unless one is already active.
// The check and the set happen under one lock.
func (t *Tracker) TryStart(runID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current.Running {
		return false
	}
	now := time.Now()
	t.current = Status{
		Running:   true,
		Message:   model.MessageInProgress,
		RunID:     runID,
		StartedAt: &now,
	}
	return true
}

// Finish records the terminal message of the active run and clears the running flag.
func (t *Tracker) Finish(report *model.RunReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	t.current.Running = false
	t.current.Message = report.Message()
	t.current.FinishedAt = &finished
	t.current.Tables = &Summary{
		Synced:     report.Count(model.OutcomeSynced),
		Skipped:    report.Count(model.OutcomeSkipped),
		Failed:     report.Count(model.OutcomeFailed),
		RowsCopied: report.RowsCopied(),
	}
}

// Current returns a copy of the latest state.
func (t *Tracker) Current() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Running reports whether a run is active.
func (t *Tracker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current.Running
}

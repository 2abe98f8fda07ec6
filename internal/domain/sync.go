package domain

import "time"

// RunStatus is the lifecycle state of a sync run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Tally counts candidate outcomes at batch, category or run granularity
type Tally struct {
	Processed int `json:"processed"`
	Stored    int `json:"stored"`
	Skipped   int `json:"skipped"`
	Diverged  int `json:"diverged"`
	Failed    int `json:"failed"`
}

// Record counts one processed candidate
func (t *Tally) Record(o Outcome) {
	t.Processed++
	switch o {
	case OutcomeStored:
		t.Stored++
	case OutcomeSkipped:
		t.Skipped++
	case OutcomeDiverged:
		t.Diverged++
	}
}

// RecordFailure counts one candidate that could not be resolved
func (t *Tally) RecordFailure() {
	t.Processed++
	t.Failed++
}

// Add merges another tally into t
func (t *Tally) Add(o Tally) {
	t.Processed += o.Processed
	t.Stored += o.Stored
	t.Skipped += o.Skipped
	t.Diverged += o.Diverged
	t.Failed += o.Failed
}

// SyncRun is the persisted summary of one ingestion pass
type SyncRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     RunStatus  `json:"status"`
	Tally
}

// SyncCategory is the persisted progress of one category within a run
type SyncCategory struct {
	RunID            string `json:"run_id"`
	Category         string `json:"category"`
	RemoteTotal      int    `json:"remote_total"`
	Batches          int    `json:"batches"`
	AbandonedBatches int    `json:"abandoned_batches"`
	Done             bool   `json:"done"`
	Tally
}

package domain

import "time"

type SyncRunStatus string

const (
	SyncRunStatusRunning   SyncRunStatus = "running"
	SyncRunStatusCompleted SyncRunStatus = "completed"
	SyncRunStatusFailed    SyncRunStatus = "failed"
)

const (
	AnalysisTypeDrivers  = "driver_analysis"
	AnalysisTypePatterns = "pattern_mining"
	AnalysisTypePersonas = "persona_summary"
)

// SyncRun is the bookkeeping row recorded once per analysis run.
type SyncRun struct {
	RunID        string        `json:"run_id"`
	AnalysisType string        `json:"analysis_type"`
	Outcome      string        `json:"outcome,omitempty"`
	Status       SyncRunStatus `json:"status"`
	RowsRead     int           `json:"rows_read"`
	RowsWritten  int           `json:"rows_written"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

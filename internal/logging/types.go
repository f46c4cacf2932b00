package logging

import "time"

// #region status
// Status values recorded for an extraction.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
// #endregion status

// #region extraction-entry
// Entry is a single row in the extraction_log table.
type Entry struct {
	RunID        string
	Trigger      string // "cli" | "rpc"
	ProblemCount int
	FeatureCount int
	Duration     time.Duration
	Status       string
	Reason       string
	CreatedAt    time.Time
}
// #endregion extraction-entry

package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const schema = `CREATE TABLE IF NOT EXISTS extraction_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT,
	trigger_type  TEXT NOT NULL,
	problem_count INTEGER NOT NULL,
	feature_count INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	status        TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL
)`

// EnsureSchema creates the extraction_log table if needed.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create extraction_log: %w", err)
	}
	return nil
}
// #endregion schema

// #region log-extraction
// LogExtraction writes one extraction entry to the extraction_log table.
func LogExtraction(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO extraction_log (run_id, trigger_type, problem_count, feature_count, duration_ms, status, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.RunID),
		entry.Trigger,
		entry.ProblemCount,
		entry.FeatureCount,
		entry.Duration.Milliseconds(),
		entry.Status,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log extraction: %w", err)
	}
	return nil
}
// #endregion log-extraction

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers

package dataset

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/mlfeatures/internal/batch"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	run_id         TEXT PRIMARY KEY,
	solution_name  TEXT NOT NULL,
	feature_names  TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS feature_vectors (
	vector_id   TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	row_index   INTEGER NOT NULL,
	problem     TEXT NOT NULL,
	vector      BLOB NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES extraction_runs(run_id)
);

CREATE INDEX IF NOT EXISTS feature_vectors_run ON feature_vectors(run_id, row_index);
`
// #endregion schema

// #region store-struct
// Store persists extracted feature vectors in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion close

// #region create-run
// CreateRun registers a new extraction run for a solution and feature layout.
func (s *Store) CreateRun(solutionName string, featureNames []string) (Run, error) {
	run := Run{
		RunID:        uuid.New().String(),
		SolutionName: solutionName,
		FeatureNames: featureNames,
		CreatedAt:    time.Now().UTC(),
	}
	namesJSON, err := json.Marshal(featureNames)
	if err != nil {
		return Run{}, fmt.Errorf("marshal feature names: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO extraction_runs (run_id, solution_name, feature_names, created_at)
		 VALUES (?, ?, ?, ?)`,
		run.RunID, run.SolutionName, string(namesJSON), run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}
// #endregion create-run

// #region append-vectors
// AppendVectors stores batch rows under a run in a single transaction.
// Every row must have one value per feature name of the run.
func (s *Store) AppendVectors(runID string, rows []batch.Row) error {
	run, err := s.GetRun(runID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO feature_vectors (vector_id, run_id, row_index, problem, vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, row := range rows {
		if len(row.Values) != len(run.FeatureNames) {
			return fmt.Errorf("row %d has %d values, run has %d features", row.Index, len(row.Values), len(run.FeatureNames))
		}
		probJSON, err := json.Marshal(row.Problem)
		if err != nil {
			return fmt.Errorf("marshal problem: %w", err)
		}
		_, err = stmt.Exec(uuid.New().String(), runID, row.Index, string(probJSON), encodeVector(row.Values), now)
		if err != nil {
			return fmt.Errorf("insert vector: %w", err)
		}
	}

	return tx.Commit()
}
// #endregion append-vectors

// #region get-run
// GetRun retrieves a run by id.
func (s *Store) GetRun(id string) (Run, error) {
	var run Run
	var namesJSON, createdStr string
	err := s.db.QueryRow(
		`SELECT run_id, solution_name, feature_names, created_at
		 FROM extraction_runs WHERE run_id = ?`, id,
	).Scan(&run.RunID, &run.SolutionName, &namesJSON, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(namesJSON), &run.FeatureNames); err != nil {
		return Run{}, fmt.Errorf("unmarshal feature names: %w", err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return run, nil
}
// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs with their vector counts.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.solution_name, r.feature_names, r.created_at, COUNT(v.vector_id)
		 FROM extraction_runs r
		 LEFT JOIN feature_vectors v ON v.run_id = r.run_id
		 GROUP BY r.run_id
		 ORDER BY r.created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var rs RunSummary
		var namesJSON, createdStr string
		if err := rows.Scan(&rs.RunID, &rs.SolutionName, &namesJSON, &createdStr, &rs.VectorCount); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(namesJSON), &rs.FeatureNames); err != nil {
			return nil, fmt.Errorf("unmarshal feature names: %w", err)
		}
		rs.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		summaries = append(summaries, rs)
	}
	return summaries, rows.Err()
}
// #endregion list-runs

// #region list-vectors
// ListVectors returns every vector of a run in extraction order.
func (s *Store) ListVectors(runID string) ([]VectorRecord, error) {
	rows, err := s.db.Query(
		`SELECT vector_id, run_id, problem, vector, created_at
		 FROM feature_vectors WHERE run_id = ? ORDER BY row_index`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list vectors: %w", err)
	}
	defer rows.Close()

	var records []VectorRecord
	for rows.Next() {
		var rec VectorRecord
		var probJSON, createdStr string
		var vecBlob []byte
		if err := rows.Scan(&rec.VectorID, &rec.RunID, &probJSON, &vecBlob, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(probJSON), &rec.Problem); err != nil {
			return nil, fmt.Errorf("unmarshal problem: %w", err)
		}
		rec.Values = decodeVector(vecBlob)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-vectors

// #region vector-encoding
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
// #endregion vector-encoding

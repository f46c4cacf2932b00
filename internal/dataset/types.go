package dataset

import (
	"time"

	"github.com/danielpatrickdp/mlfeatures/internal/problem"
)

// #region run
// Run groups the vectors extracted for one solution with one feature layout.
type Run struct {
	RunID        string
	SolutionName string
	FeatureNames []string
	CreatedAt    time.Time
}
// #endregion run

// #region vector-record
// VectorRecord is one stored feature vector.
type VectorRecord struct {
	VectorID  string
	RunID     string
	Problem   problem.ContractionProblem
	Values    []float32
	CreatedAt time.Time
}
// #endregion vector-record

// #region run-summary
// RunSummary pairs a run with its vector count.
type RunSummary struct {
	Run
	VectorCount int
}
// #endregion run-summary

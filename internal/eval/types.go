package eval

// #region eval-config
// EvalConfig holds thresholds for validating extracted feature vectors.
type EvalConfig struct {
	MaxWavesPerSIMD float32 // warn if any row schedules more waves per SIMD than this
}

// DefaultEvalConfig returns sensible defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxWavesPerSIMD: 32.0,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float32
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of vector validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result

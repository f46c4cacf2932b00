package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/mlfeatures/internal/batch"
	"github.com/danielpatrickdp/mlfeatures/internal/features"
)

// #region eval-harness
// EvalHarness checks extracted vectors before they are stored as training data.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates rows produced by set. Malformed scale factors surface here as
// NaN, infinities, or granularities outside [0, 1].
func (h *EvalHarness) Run(set features.Set, rows []batch.Row) EvalResult {
	var metrics []EvalMetric
	passed := true
	var failReasons []string

	fs := set.Features()
	var nonFinite, outOfRange, negative int
	var maxWaves float32
	for _, row := range rows {
		for i, v := range row.Values {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				nonFinite++
				continue
			}
			switch fs[i].Type() {
			case features.TypeTile0Granularity, features.TypeTile1Granularity, features.TypeCUGranularity:
				if v < 0 || v > 1 {
					outOfRange++
				}
			case features.TypeFreeSizeA, features.TypeFreeSizeB, features.TypeBoundSize:
				if v < 0 {
					negative++
				}
			case features.TypeWavesPerSIMD:
				if v > maxWaves {
					maxWaves = v
				}
			}
		}
	}

	// 1. Every value finite
	metrics = append(metrics, EvalMetric{Name: "non_finite", Value: float32(nonFinite), Pass: nonFinite == 0})
	if nonFinite > 0 {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("%d non-finite values", nonFinite))
	}

	// 2. Granularity scores within [0, 1]
	metrics = append(metrics, EvalMetric{Name: "granularity_out_of_range", Value: float32(outOfRange), Pass: outOfRange == 0})
	if outOfRange > 0 {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("%d granularities outside [0, 1]", outOfRange))
	}

	// 3. Sizes non-negative
	metrics = append(metrics, EvalMetric{Name: "negative_size", Value: float32(negative), Pass: negative == 0})
	if negative > 0 {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("%d negative sizes", negative))
	}

	// 4. Wave count: informational only
	metrics = append(metrics, EvalMetric{
		Name:  "max_waves_per_simd",
		Value: maxWaves,
		Pass:  maxWaves <= h.config.MaxWavesPerSIMD,
	})

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

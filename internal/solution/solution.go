package solution

import (
	"errors"
	"fmt"
	"math"
)

// #region granularity

// ComputeGranularity scores how much of the last partial unit is used: x / ceil(x).
// Returns 0 when ceil(x) is 0.
func ComputeGranularity(x float32) float32 {
	c := Ceil(x)
	if c == 0 {
		return 0
	}
	return x / c
}

// Ceil rounds x up in float32.
func Ceil(x float32) float32 {
	return float32(math.Ceil(float64(x)))
}

// #endregion granularity

// #region validate

// Validate rejects non-positive hardware counts.
func (h Hardware) Validate() error {
	if h.ComputeUnits <= 0 {
		return fmt.Errorf("compute units must be positive, got %d", h.ComputeUnits)
	}
	if h.WavefrontSize <= 0 {
		return fmt.Errorf("wavefront size must be positive, got %d", h.WavefrontSize)
	}
	if h.SIMDPerCU <= 0 {
		return fmt.Errorf("simd per cu must be positive, got %d", h.SIMDPerCU)
	}
	return nil
}

// Validate rejects tile, work-group, and split-U values the scale factors cannot use.
func (c Config) Validate() error {
	if c.MacroTile[0] <= 0 || c.MacroTile[1] <= 0 {
		return fmt.Errorf("macro tile must be positive, got %dx%d", c.MacroTile[0], c.MacroTile[1])
	}
	for i, w := range c.WorkGroup {
		if w <= 0 {
			return fmt.Errorf("work group[%d] must be positive, got %d", i, w)
		}
	}
	if c.GlobalSplitU <= 0 {
		return errors.New("global split-u must be at least 1")
	}
	return nil
}

// #endregion validate

// #region scale-factors

// TileScaleFactors returns 1/MT0 and 1/MT1.
func (c Config) TileScaleFactors() (mt0, mt1 float32) {
	return 1 / float32(c.MacroTile[0]), 1 / float32(c.MacroTile[1])
}

// LocalSplitU is the z extent of the work group.
func (c Config) LocalSplitU() int {
	return c.WorkGroup[2]
}

// CUScaleFactors normalizes tile counts to tiles per CU: 1 / (CUs / GSU / LSU).
func (c Config) CUScaleFactors(hw Hardware) ScaleFactors {
	mt0, mt1 := c.TileScaleFactors()
	cus := float32(hw.ComputeUnits) / float32(c.GlobalSplitU) / float32(c.LocalSplitU())
	return ScaleFactors{
		MT0Scale:    mt0,
		MT1Scale:    mt1,
		DevSolScale: 1 / cus,
	}
}

// WaveScaleFactors normalizes tile counts to waves per SIMD:
// (GSU / CUs) * ceil(wgX * wgY / wavefront) / (2 * simdPerCU).
func (c Config) WaveScaleFactors(hw Hardware) ScaleFactors {
	mt0, mt1 := c.TileScaleFactors()
	wavesPerWG := Ceil(float32(c.WorkGroup[0]*c.WorkGroup[1]) / float32(hw.WavefrontSize))
	scale := float32(c.GlobalSplitU) / float32(hw.ComputeUnits) * wavesPerWG / float32(2*hw.SIMDPerCU)
	return ScaleFactors{
		MT0Scale:    mt0,
		MT1Scale:    mt1,
		DevSolScale: scale,
	}
}

// #endregion scale-factors

// #region granularities

// Granularities computes the occupancy report for a problem with free sizes m and n
// and the given batch count. Tile counts are ceiled per dimension before multiplying.
func (c Config) Granularities(hw Hardware, m, n, batches int) Granularities {
	cu := c.CUScaleFactors(hw)
	wave := c.WaveScaleFactors(hw)

	var g Granularities
	g.NumTiles0 = float32(m) * cu.MT0Scale
	g.NumTiles1 = float32(n) * cu.MT1Scale
	g.Tile0Granularity = ComputeGranularity(g.NumTiles0)
	g.Tile1Granularity = ComputeGranularity(g.NumTiles1)
	g.TotalTiles = Ceil(g.NumTiles0) * Ceil(g.NumTiles1)
	g.TilesPerCU = float32(batches) * g.TotalTiles * cu.DevSolScale
	g.CUGranularity = ComputeGranularity(g.TilesPerCU)
	g.WavesPerSIMD = g.TotalTiles * wave.DevSolScale
	g.TotalGranularity = g.Tile0Granularity * g.Tile1Granularity * g.CUGranularity
	return g
}

// #endregion granularities

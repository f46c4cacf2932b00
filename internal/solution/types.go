package solution

// #region scale-factors

// ScaleFactors folds a kernel's tile extent and device partitioning into multipliers.
// MT0Scale and MT1Scale are 1/MT0 and 1/MT1, so size*scale is a tile count.
// DevSolScale normalizes a tile count to per-CU (or per-SIMD wave) units.
type ScaleFactors struct {
	MT0Scale    float32 `json:"mt0_scale"`
	MT1Scale    float32 `json:"mt1_scale"`
	DevSolScale float32 `json:"dev_sol_scale"`
}

// GranularityFn maps a (possibly fractional) count of work units to an occupancy score.
type GranularityFn func(float32) float32

// #endregion scale-factors

// #region hardware

// Hardware describes the GPU resources the granularity model divides work over.
type Hardware struct {
	ComputeUnits  int `json:"compute_units"`
	WavefrontSize int `json:"wavefront_size"`
	SIMDPerCU     int `json:"simd_per_cu"`
}

// DefaultHardware returns an MI100-class device.
func DefaultHardware() Hardware {
	return Hardware{
		ComputeUnits:  120,
		WavefrontSize: 64,
		SIMDPerCU:     4,
	}
}

// #endregion hardware

// #region config

// Config is the subset of a kernel solution the feature model needs.
type Config struct {
	Name         string `json:"name"`
	MacroTile    [2]int `json:"macro_tile"`    // MT0, MT1
	WorkGroup    [3]int `json:"work_group"`    // x, y, z (z = LocalSplitU)
	GlobalSplitU int    `json:"global_split_u"`
}

// DefaultConfig returns a 128x128 tile with a 16x16 work group and no split-U.
func DefaultConfig() Config {
	return Config{
		Name:         "MT128x128_WG16x16x1_GSU1",
		MacroTile:    [2]int{128, 128},
		WorkGroup:    [3]int{16, 16, 1},
		GlobalSplitU: 1,
	}
}

// #endregion config

// #region granularities

// Granularities is the full closed-form occupancy report for one problem/solution pair.
type Granularities struct {
	NumTiles0        float32 `json:"num_tiles0"`
	NumTiles1        float32 `json:"num_tiles1"`
	Tile0Granularity float32 `json:"tile0_granularity"`
	Tile1Granularity float32 `json:"tile1_granularity"`
	TotalTiles       float32 `json:"total_tiles"`
	TilesPerCU       float32 `json:"tiles_per_cu"`
	CUGranularity    float32 `json:"cu_granularity"`
	WavesPerSIMD     float32 `json:"waves_per_simd"`
	TotalGranularity float32 `json:"total_granularity"`
}

// #endregion granularities

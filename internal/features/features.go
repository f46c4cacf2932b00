package features

import "github.com/danielpatrickdp/mlfeatures/internal/solution"

// #region indexed

// FreeSizeA exposes the A-side free dimension at Index.
type FreeSizeA struct {
	Index int
}

func (FreeSizeA) Type() string { return TypeFreeSizeA }

func (f FreeSizeA) Evaluate(p Problem) float32 { return float32(p.FreeSizeA(f.Index)) }

func (f FreeSizeA) Config() Config { return Indexed{Index: f.Index} }

// FreeSizeB exposes the B-side free dimension at Index.
type FreeSizeB struct {
	Index int
}

func (FreeSizeB) Type() string { return TypeFreeSizeB }

func (f FreeSizeB) Evaluate(p Problem) float32 { return float32(p.FreeSizeB(f.Index)) }

func (f FreeSizeB) Config() Config { return Indexed{Index: f.Index} }

// BoundSize exposes the bound (summation) dimension at Index.
type BoundSize struct {
	Index int
}

func (BoundSize) Type() string { return TypeBoundSize }

func (f BoundSize) Evaluate(p Problem) float32 { return float32(p.BoundSize(f.Index)) }

func (f BoundSize) Config() Config { return Indexed{Index: f.Index} }

// #endregion indexed

// #region tile-granularity

// Tile0Granularity scores how evenly FreeSizeA(0) divides into tiles of extent MT0.
// Value is 1/MT0. Only free dimension 0 is considered.
type Tile0Granularity struct {
	Value       float32
	Granularity solution.GranularityFn // nil uses solution.ComputeGranularity
}

// NewTile0Granularity builds the feature for a tile extent mt0.
func NewTile0Granularity(mt0 int) Tile0Granularity {
	return Tile0Granularity{Value: 1 / float32(mt0)}
}

func (Tile0Granularity) Type() string { return TypeTile0Granularity }

func (f Tile0Granularity) Evaluate(p Problem) float32 {
	numTiles := float32(p.FreeSizeA(0)) * f.Value
	return granularity(f.Granularity)(numTiles)
}

func (f Tile0Granularity) Config() Config { return Valued{Value: Scalar(f.Value)} }

// Tile1Granularity is Tile0Granularity over FreeSizeB(0) with Value = 1/MT1.
type Tile1Granularity struct {
	Value       float32
	Granularity solution.GranularityFn
}

// NewTile1Granularity builds the feature for a tile extent mt1.
func NewTile1Granularity(mt1 int) Tile1Granularity {
	return Tile1Granularity{Value: 1 / float32(mt1)}
}

func (Tile1Granularity) Type() string { return TypeTile1Granularity }

func (f Tile1Granularity) Evaluate(p Problem) float32 {
	numTiles := float32(p.FreeSizeB(0)) * f.Value
	return granularity(f.Granularity)(numTiles)
}

func (f Tile1Granularity) Config() Config { return Valued{Value: Scalar(f.Value)} }

// #endregion tile-granularity

// #region occupancy

// CUGranularity scores tiles per compute unit. Scale.DevSolScale is usually
// 1 / (numCUs / globalSplitU / localSplitU), see solution.Config.CUScaleFactors.
type CUGranularity struct {
	Scale       solution.ScaleFactors
	Granularity solution.GranularityFn
}

func (CUGranularity) Type() string { return TypeCUGranularity }

func (f CUGranularity) Evaluate(p Problem) float32 {
	var numBatches float32 = 1 // batched problems are not modeled
	numTilesM := float32(p.FreeSizeA(0)) * f.Scale.MT0Scale
	numTilesN := float32(p.FreeSizeB(0)) * f.Scale.MT1Scale
	tilesPerCU := numBatches * solution.Ceil(numTilesM) * solution.Ceil(numTilesN) * f.Scale.DevSolScale
	return granularity(f.Granularity)(tilesPerCU)
}

func (f CUGranularity) Config() Config { return Valued{Value: Scale(f.Scale)} }

// WavesPerSIMD is the raw scaled wave count; it is not passed through a
// granularity function. See solution.Config.WaveScaleFactors.
type WavesPerSIMD struct {
	Scale solution.ScaleFactors
}

func (WavesPerSIMD) Type() string { return TypeWavesPerSIMD }

func (f WavesPerSIMD) Evaluate(p Problem) float32 {
	numTilesM := float32(p.FreeSizeA(0)) * f.Scale.MT0Scale
	numTilesN := float32(p.FreeSizeB(0)) * f.Scale.MT1Scale
	totalTiles := solution.Ceil(numTilesM) * solution.Ceil(numTilesN)
	return totalTiles * f.Scale.DevSolScale
}

func (f WavesPerSIMD) Config() Config { return Valued{Value: Scale(f.Scale)} }

// #endregion occupancy

// #region helpers

var (
	_ Feature = FreeSizeA{}
	_ Feature = FreeSizeB{}
	_ Feature = BoundSize{}
	_ Feature = Tile0Granularity{}
	_ Feature = Tile1Granularity{}
	_ Feature = CUGranularity{}
	_ Feature = WavesPerSIMD{}
)

func granularity(fn solution.GranularityFn) solution.GranularityFn {
	if fn == nil {
		return solution.ComputeGranularity
	}
	return fn
}

// #endregion helpers

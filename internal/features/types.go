package features

import "github.com/danielpatrickdp/mlfeatures/internal/solution"

// #region problem-interface

// Problem abstracts the contraction shape so features can be evaluated against any
// representation. Accessors take zero-based indices and may panic when out of range.
type Problem interface {
	FreeSizeA(i int) int
	FreeSizeB(i int) int
	BoundSize(i int) int
}

// #endregion problem-interface

// #region feature-interface

// Feature is a named scalar derived from a problem. Evaluate is pure: the same
// feature and problem always produce the same value.
type Feature interface {
	Type() string
	Evaluate(p Problem) float32
	Config() Config
}

// #endregion feature-interface

// #region type-names

// Type names identify each feature kind in specs, vectors, and the registry.
const (
	TypeFreeSizeA        = "FreeSizeA"
	TypeFreeSizeB        = "FreeSizeB"
	TypeBoundSize        = "BoundSize"
	TypeTile0Granularity = "Tile0Granularity"
	TypeTile1Granularity = "Tile1Granularity"
	TypeCUGranularity    = "CUGranularity"
	TypeWavesPerSIMD     = "WavesPerSIMD"
)

// #endregion type-names

// #region config

// Config is either Indexed or Valued.
type Config interface {
	isConfig()
}

// Indexed configures a feature that reads a problem attribute at Index.
type Indexed struct {
	Index int
}

// Valued configures a feature with a payload fixed at construction time.
type Valued struct {
	Value Payload
}

func (Indexed) isConfig() {}
func (Valued) isConfig()  {}

// Payload is either Scalar or Scale.
type Payload interface {
	isPayload()
}

// Scalar is a single precomputed value such as 1/MT0.
type Scalar float32

// Scale carries a full set of scale factors.
type Scale solution.ScaleFactors

func (Scalar) isPayload() {}
func (Scale) isPayload()  {}

// HasIndex reports whether c is the Indexed shape.
func HasIndex(c Config) bool {
	_, ok := c.(Indexed)
	return ok
}

// HasValue reports whether c is the Valued shape.
func HasValue(c Config) bool {
	_, ok := c.(Valued)
	return ok
}

// #endregion config

package features

import (
	"fmt"

	"github.com/danielpatrickdp/mlfeatures/internal/solution"
)

// #region set

// Set is an ordered list of features evaluated together into one vector.
type Set struct {
	features []Feature
}

// NewSet builds a set in the given order.
func NewSet(fs ...Feature) Set {
	cp := make([]Feature, len(fs))
	copy(cp, fs)
	return Set{features: cp}
}

// DefaultSet returns the standard seven-feature layout for one kernel configuration.
func DefaultSet(cfg solution.Config, hw solution.Hardware) Set {
	return NewSet(
		FreeSizeA{Index: 0},
		FreeSizeB{Index: 0},
		BoundSize{Index: 0},
		NewTile0Granularity(cfg.MacroTile[0]),
		NewTile1Granularity(cfg.MacroTile[1]),
		CUGranularity{Scale: cfg.CUScaleFactors(hw)},
		WavesPerSIMD{Scale: cfg.WaveScaleFactors(hw)},
	)
}

// Len returns the number of features.
func (s Set) Len() int { return len(s.features) }

// Features returns a copy of the features in order.
func (s Set) Features() []Feature {
	cp := make([]Feature, len(s.features))
	copy(cp, s.features)
	return cp
}

// #endregion set

// #region names

// Names returns one column name per feature. Indexed kinds carry their index,
// e.g. "FreeSizeA[0]"; value kinds use the bare type name.
func (s Set) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = Name(f)
	}
	return names
}

// Name returns the column name of a single feature.
func Name(f Feature) string {
	if c, ok := f.Config().(Indexed); ok {
		return fmt.Sprintf("%s[%d]", f.Type(), c.Index)
	}
	return f.Type()
}

// #endregion names

// #region evaluate

// Evaluate computes every feature against p in set order.
func (s Set) Evaluate(p Problem) []float32 {
	out := make([]float32, len(s.features))
	for i, f := range s.features {
		out[i] = f.Evaluate(p)
	}
	return out
}

// Vector evaluates the set keyed by column name. When two features share a name
// the later one wins.
func (s Set) Vector(p Problem) map[string]float32 {
	out := make(map[string]float32, len(s.features))
	for _, f := range s.features {
		out[Name(f)] = f.Evaluate(p)
	}
	return out
}

// #endregion evaluate

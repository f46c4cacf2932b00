package features

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/mlfeatures/internal/solution"
)

// #region errors

var (
	ErrUnknownType   = errors.New("unknown feature type")
	ErrDuplicateType = errors.New("feature type already registered")
	ErrConfigShape   = errors.New("feature config has the wrong shape")
)

// #endregion errors

// #region spec

// Spec is the serialized form of a configured feature. Exactly one of Index,
// Value, or Scale is set.
type Spec struct {
	Type  string                 `json:"type"`
	Index *int                   `json:"index,omitempty"`
	Value *float32               `json:"value,omitempty"`
	Scale *solution.ScaleFactors `json:"scale,omitempty"`
}

// ConfigOf converts the payload fields of a spec into a Config.
func (s Spec) ConfigOf() (Config, error) {
	set := 0
	if s.Index != nil {
		set++
	}
	if s.Value != nil {
		set++
	}
	if s.Scale != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: need exactly one of index, value, scale, got %d: %w", s.Type, set, ErrConfigShape)
	}
	switch {
	case s.Index != nil:
		return Indexed{Index: *s.Index}, nil
	case s.Value != nil:
		return Valued{Value: Scalar(*s.Value)}, nil
	default:
		return Valued{Value: Scale(*s.Scale)}, nil
	}
}

// SpecOf serializes a feature.
func SpecOf(f Feature) Spec {
	spec := Spec{Type: f.Type()}
	switch c := f.Config().(type) {
	case Indexed:
		idx := c.Index
		spec.Index = &idx
	case Valued:
		switch v := c.Value.(type) {
		case Scalar:
			val := float32(v)
			spec.Value = &val
		case Scale:
			sf := solution.ScaleFactors(v)
			spec.Scale = &sf
		}
	}
	return spec
}

// #endregion spec

// #region registry

// Constructor builds a feature from its config.
type Constructor func(Config) (Feature, error)

// Registry maps type names to constructors. Register is not safe to call
// concurrently with Build.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry returns a registry holding the seven built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.ctors[TypeFreeSizeA] = indexedCtor(TypeFreeSizeA, func(i int) Feature { return FreeSizeA{Index: i} })
	r.ctors[TypeFreeSizeB] = indexedCtor(TypeFreeSizeB, func(i int) Feature { return FreeSizeB{Index: i} })
	r.ctors[TypeBoundSize] = indexedCtor(TypeBoundSize, func(i int) Feature { return BoundSize{Index: i} })
	r.ctors[TypeTile0Granularity] = scalarCtor(TypeTile0Granularity, func(v float32) Feature { return Tile0Granularity{Value: v} })
	r.ctors[TypeTile1Granularity] = scalarCtor(TypeTile1Granularity, func(v float32) Feature { return Tile1Granularity{Value: v} })
	r.ctors[TypeCUGranularity] = scaleCtor(TypeCUGranularity, func(sf solution.ScaleFactors) Feature { return CUGranularity{Scale: sf} })
	r.ctors[TypeWavesPerSIMD] = scaleCtor(TypeWavesPerSIMD, func(sf solution.ScaleFactors) Feature { return WavesPerSIMD{Scale: sf} })
	return r
}

// Register adds a new kind.
func (r *Registry) Register(name string, ctor Constructor) error {
	if _, ok := r.ctors[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateType)
	}
	r.ctors[name] = ctor
	return nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs the feature a spec describes.
func (r *Registry) Build(spec Spec) (Feature, error) {
	ctor, ok := r.ctors[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%q: %w", spec.Type, ErrUnknownType)
	}
	cfg, err := spec.ConfigOf()
	if err != nil {
		return nil, err
	}
	return ctor(cfg)
}

// BuildSet constructs a set from specs, in order.
func (r *Registry) BuildSet(specs []Spec) (Set, error) {
	fs := make([]Feature, 0, len(specs))
	for i, spec := range specs {
		f, err := r.Build(spec)
		if err != nil {
			return Set{}, fmt.Errorf("feature %d: %w", i, err)
		}
		fs = append(fs, f)
	}
	return NewSet(fs...), nil
}

// Specs serializes every feature of a set.
func (s Set) Specs() []Spec {
	specs := make([]Spec, len(s.features))
	for i, f := range s.features {
		specs[i] = SpecOf(f)
	}
	return specs
}

// #endregion registry

// #region constructors

func indexedCtor(name string, mk func(int) Feature) Constructor {
	return func(c Config) (Feature, error) {
		idx, ok := c.(Indexed)
		if !ok {
			return nil, fmt.Errorf("%s takes an index: %w", name, ErrConfigShape)
		}
		if idx.Index < 0 {
			return nil, fmt.Errorf("%s index %d is negative: %w", name, idx.Index, ErrConfigShape)
		}
		return mk(idx.Index), nil
	}
}

func scalarCtor(name string, mk func(float32) Feature) Constructor {
	return func(c Config) (Feature, error) {
		v, ok := c.(Valued)
		if !ok {
			return nil, fmt.Errorf("%s takes a value: %w", name, ErrConfigShape)
		}
		s, ok := v.Value.(Scalar)
		if !ok {
			return nil, fmt.Errorf("%s takes a scalar value: %w", name, ErrConfigShape)
		}
		return mk(float32(s)), nil
	}
}

func scaleCtor(name string, mk func(solution.ScaleFactors) Feature) Constructor {
	return func(c Config) (Feature, error) {
		v, ok := c.(Valued)
		if !ok {
			return nil, fmt.Errorf("%s takes scale factors: %w", name, ErrConfigShape)
		}
		s, ok := v.Value.(Scale)
		if !ok {
			return nil, fmt.Errorf("%s takes scale factors: %w", name, ErrConfigShape)
		}
		return mk(solution.ScaleFactors(s)), nil
	}
}

// #endregion constructors

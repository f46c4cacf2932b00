package features

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/danielpatrickdp/mlfeatures/internal/problem"
	"github.com/danielpatrickdp/mlfeatures/internal/solution"
)

func intPtr(i int) *int { return &i }
func floatPtr(f float32) *float32 { return &f }

// #region set-tests

func TestDefaultSet_Names(t *testing.T) {
	set := DefaultSet(solution.DefaultConfig(), solution.DefaultHardware())
	want := []string{
		"FreeSizeA[0]", "FreeSizeB[0]", "BoundSize[0]",
		"Tile0Granularity", "Tile1Granularity", "CUGranularity", "WavesPerSIMD",
	}
	got := set.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSet_EvaluateOrder(t *testing.T) {
	set := NewSet(BoundSize{Index: 0}, FreeSizeB{Index: 0}, FreeSizeA{Index: 0})
	got := set.Evaluate(problem.NewGEMM(1, 2, 3, 1))
	want := []float32{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestSet_Vector(t *testing.T) {
	set := DefaultSet(solution.DefaultConfig(), solution.DefaultHardware())
	vec := set.Vector(problem.NewGEMM(1024, 1024, 512, 1))
	if vec["FreeSizeA[0]"] != 1024 || vec["BoundSize[0]"] != 512 {
		t.Errorf("unexpected size columns: %v", vec)
	}
	if vec["Tile0Granularity"] != 1 {
		t.Errorf("expected Tile0Granularity 1, got %f", vec["Tile0Granularity"])
	}
	if len(vec) != set.Len() {
		t.Errorf("expected %d columns, got %d", set.Len(), len(vec))
	}
}

func TestNewSet_CopiesInput(t *testing.T) {
	fs := []Feature{FreeSizeA{Index: 0}}
	set := NewSet(fs...)
	fs[0] = BoundSize{Index: 0}
	if set.Features()[0].Type() != TypeFreeSizeA {
		t.Error("expected set to be unaffected by caller's slice mutation")
	}
}

// #endregion set-tests

// #region registry-tests

func TestRegistry_BuiltinTypes(t *testing.T) {
	types := NewRegistry().Types()
	if len(types) != 7 {
		t.Fatalf("expected 7 built-in types, got %v", types)
	}
}

func TestRegistry_BuildEachKind(t *testing.T) {
	reg := NewRegistry()
	sf := &solution.ScaleFactors{MT0Scale: 0.5, MT1Scale: 0.25, DevSolScale: 0.1}
	specs := []Spec{
		{Type: TypeFreeSizeA, Index: intPtr(1)},
		{Type: TypeFreeSizeB, Index: intPtr(0)},
		{Type: TypeBoundSize, Index: intPtr(2)},
		{Type: TypeTile0Granularity, Value: floatPtr(0.125)},
		{Type: TypeTile1Granularity, Value: floatPtr(0.0625)},
		{Type: TypeCUGranularity, Scale: sf},
		{Type: TypeWavesPerSIMD, Scale: sf},
	}
	for _, spec := range specs {
		f, err := reg.Build(spec)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", spec.Type, err)
		}
		if f.Type() != spec.Type {
			t.Errorf("expected type %s, got %s", spec.Type, f.Type())
		}
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	_, err := NewRegistry().Build(Spec{Type: "Nope", Index: intPtr(0)})
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestRegistry_ShapeErrors(t *testing.T) {
	reg := NewRegistry()
	sf := &solution.ScaleFactors{}
	bad := []Spec{
		{Type: TypeFreeSizeA},
		{Type: TypeFreeSizeA, Index: intPtr(0), Value: floatPtr(1)},
		{Type: TypeFreeSizeA, Value: floatPtr(1)},
		{Type: TypeBoundSize, Index: intPtr(-1)},
		{Type: TypeTile0Granularity, Index: intPtr(0)},
		{Type: TypeTile1Granularity, Scale: sf},
		{Type: TypeCUGranularity, Value: floatPtr(0.5)},
		{Type: TypeWavesPerSIMD, Index: intPtr(0)},
		{Type: TypeCUGranularity, Value: floatPtr(0.5), Scale: sf},
	}
	for _, spec := range bad {
		_, err := reg.Build(spec)
		if !errors.Is(err, ErrConfigShape) {
			t.Errorf("%+v: expected ErrConfigShape, got %v", spec, err)
		}
	}
}

func TestRegistry_RegisterCustom(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("BatchCount", func(c Config) (Feature, error) {
		return FreeSizeA{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reg.Types()) != 8 {
		t.Errorf("expected 8 types after register, got %d", len(reg.Types()))
	}
	err = reg.Register(TypeFreeSizeA, func(c Config) (Feature, error) { return nil, nil })
	if !errors.Is(err, ErrDuplicateType) {
		t.Errorf("expected ErrDuplicateType, got %v", err)
	}
}

func TestSpec_RoundTrip(t *testing.T) {
	reg := NewRegistry()
	set := DefaultSet(solution.DefaultConfig(), solution.DefaultHardware())
	data, err := json.Marshal(set.Specs())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var specs []Spec
	if err := json.Unmarshal(data, &specs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rebuilt, err := reg.BuildSet(specs)
	if err != nil {
		t.Fatalf("build set: %v", err)
	}

	p := problem.NewGEMM(3000, 777, 128, 1)
	want := set.Evaluate(p)
	got := rebuilt.Evaluate(p)
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("%s: expected %f after round trip, got %f", set.Names()[i], want[i], got[i])
		}
	}
}

func TestSpec_JSONShape(t *testing.T) {
	data, err := json.Marshal(SpecOf(FreeSizeB{Index: 1}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"FreeSizeB","index":1}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestBuildSet_ReportsPosition(t *testing.T) {
	_, err := NewRegistry().BuildSet([]Spec{
		{Type: TypeFreeSizeA, Index: intPtr(0)},
		{Type: "Missing", Index: intPtr(0)},
	})
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected wrapped ErrUnknownType, got %v", err)
	}
}

// #endregion registry-tests

package features

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/mlfeatures/internal/problem"
	"github.com/danielpatrickdp/mlfeatures/internal/solution"
)

// #region helpers

func approx(a, b float32) bool {
	return math.Abs(float64(a)-float64(b)) < 1e-5
}

func doubling(x float32) float32 { return 2 * x }

// countingProblem records accessor calls so tests can check which dimensions a feature reads.
type countingProblem struct {
	problem.ContractionProblem
	reads map[string][]int
}

func newCountingProblem(p problem.ContractionProblem) *countingProblem {
	return &countingProblem{ContractionProblem: p, reads: make(map[string][]int)}
}

func (c *countingProblem) FreeSizeA(i int) int {
	c.reads["a"] = append(c.reads["a"], i)
	return c.ContractionProblem.FreeSizeA(i)
}

func (c *countingProblem) FreeSizeB(i int) int {
	c.reads["b"] = append(c.reads["b"], i)
	return c.ContractionProblem.FreeSizeB(i)
}

func (c *countingProblem) BoundSize(i int) int {
	c.reads["k"] = append(c.reads["k"], i)
	return c.ContractionProblem.BoundSize(i)
}

// #endregion helpers

// #region indexed-tests

func TestIndexedFeatures_PassThrough(t *testing.T) {
	p := problem.ContractionProblem{
		FreeA: []int{0, 7, 4096},
		FreeB: []int{13, 1},
		Bound: []int{256, 3},
	}
	tests := []struct {
		f    Feature
		want float32
	}{
		{FreeSizeA{Index: 0}, 0},
		{FreeSizeA{Index: 1}, 7},
		{FreeSizeA{Index: 2}, 4096},
		{FreeSizeB{Index: 0}, 13},
		{FreeSizeB{Index: 1}, 1},
		{BoundSize{Index: 0}, 256},
		{BoundSize{Index: 1}, 3},
	}
	for _, tt := range tests {
		got := tt.f.Evaluate(p)
		if got != tt.want {
			t.Errorf("%s: expected %f, got %f", Name(tt.f), tt.want, got)
		}
	}
}

func TestIndexedFeatures_ExactForManySizes(t *testing.T) {
	for s := 0; s < 1<<20; s += 4099 {
		p := problem.NewGEMM(s, s+1, s+2, 1)
		if got := (FreeSizeA{}).Evaluate(p); got != float32(s) {
			t.Fatalf("FreeSizeA: expected %d, got %f", s, got)
		}
		if got := (FreeSizeB{}).Evaluate(p); got != float32(s+1) {
			t.Fatalf("FreeSizeB: expected %d, got %f", s+1, got)
		}
		if got := (BoundSize{}).Evaluate(p); got != float32(s+2) {
			t.Fatalf("BoundSize: expected %d, got %f", s+2, got)
		}
	}
}

func TestIndexedFeature_OutOfRangePropagates(t *testing.T) {
	p := problem.NewGEMM(8, 8, 8, 1)
	defer func() {
		if recover() == nil {
			t.Error("expected the problem's out-of-range panic to propagate")
		}
	}()
	BoundSize{Index: 3}.Evaluate(p)
}

// #endregion indexed-tests

// #region tile-tests

func TestTile0Granularity(t *testing.T) {
	for _, mt0 := range []int{16, 32, 64, 128, 256} {
		for _, m := range []int{1, 100, 128, 1000, 1024, 4097} {
			f := NewTile0Granularity(mt0)
			got := f.Evaluate(problem.NewGEMM(m, 1, 1, 1))
			want := solution.ComputeGranularity(float32(m) * (1 / float32(mt0)))
			if got != want {
				t.Errorf("mt0=%d m=%d: expected %f, got %f", mt0, m, want, got)
			}
		}
	}
}

func TestTile0Granularity_EvenDivision(t *testing.T) {
	f := NewTile0Granularity(128)
	if got := f.Evaluate(problem.NewGEMM(1024, 1, 1, 1)); got != 1 {
		t.Errorf("expected 1.0 for even division, got %f", got)
	}
	// 1000 / 128 = 7.8125 → 7.8125 / 8
	if got := f.Evaluate(problem.NewGEMM(1000, 1, 1, 1)); got != 0.9765625 {
		t.Errorf("expected 0.9765625, got %f", got)
	}
}

func TestTile1Granularity_ReadsFreeB(t *testing.T) {
	f := NewTile1Granularity(64)
	p := newCountingProblem(problem.NewGEMM(64, 96, 1, 1))
	got := f.Evaluate(p)
	// 96 / 64 = 1.5 → 1.5 / 2
	if got != 0.75 {
		t.Errorf("expected 0.75, got %f", got)
	}
	if len(p.reads["a"]) != 0 {
		t.Errorf("expected no FreeSizeA reads, got %v", p.reads["a"])
	}
	if len(p.reads["b"]) != 1 || p.reads["b"][0] != 0 {
		t.Errorf("expected one FreeSizeB(0) read, got %v", p.reads["b"])
	}
}

func TestTileGranularity_AlwaysIndexZero(t *testing.T) {
	p := newCountingProblem(problem.ContractionProblem{
		FreeA: []int{100, 5000},
		FreeB: []int{100, 5000},
		Bound: []int{1},
	})
	NewTile0Granularity(32).Evaluate(p)
	NewTile1Granularity(32).Evaluate(p)
	for _, key := range []string{"a", "b"} {
		for _, idx := range p.reads[key] {
			if idx != 0 {
				t.Errorf("expected only index 0 reads on %s, got %v", key, p.reads[key])
			}
		}
	}
}

func TestTileGranularity_CustomFn(t *testing.T) {
	f := Tile0Granularity{Value: 0.5, Granularity: doubling}
	if got := f.Evaluate(problem.NewGEMM(5, 1, 1, 1)); got != 5 {
		t.Errorf("expected 2 * 2.5 = 5, got %f", got)
	}
}

func TestTileGranularity_ZeroSize(t *testing.T) {
	f := NewTile0Granularity(128)
	got := f.Evaluate(problem.NewGEMM(0, 1, 1, 1))
	if got != 0 || math.IsNaN(float64(got)) {
		t.Errorf("expected 0 for empty dimension, got %f", got)
	}
}

// #endregion tile-tests

// #region occupancy-tests

// M=5, MT0=2 → 2.5 tiles → 3; N=3, MT1=3 → 1 tile; devSolScale 0.1.
var exampleScale = solution.ScaleFactors{MT0Scale: 0.5, MT1Scale: float32(1.0 / 3.0), DevSolScale: 0.1}

func TestCUGranularity_PerDimensionCeiling(t *testing.T) {
	p := problem.NewGEMM(5, 3, 1, 1)
	identity := func(x float32) float32 { return x }
	got := CUGranularity{Scale: exampleScale, Granularity: identity}.Evaluate(p)
	if !approx(got, 0.3) {
		t.Errorf("expected tilesPerCU 3*1*0.1 = 0.3, got %f", got)
	}
}

func TestCUGranularity_CeilBeforeMultiply(t *testing.T) {
	// 2.5 tiles in each dimension: per-dimension ceiling gives 9, ceiling the product gives 7.
	sf := solution.ScaleFactors{MT0Scale: 0.5, MT1Scale: 0.5, DevSolScale: 1}
	identity := func(x float32) float32 { return x }
	got := CUGranularity{Scale: sf, Granularity: identity}.Evaluate(problem.NewGEMM(5, 5, 1, 1))
	if got != 9 {
		t.Errorf("expected 9 tiles, got %f", got)
	}
}

func TestCUGranularity_DefaultFn(t *testing.T) {
	p := problem.NewGEMM(5, 3, 1, 1)
	got := CUGranularity{Scale: exampleScale}.Evaluate(p)
	// ComputeGranularity(0.3) = 0.3 / 1
	if !approx(got, 0.3) {
		t.Errorf("expected 0.3, got %f", got)
	}
}

func TestWavesPerSIMD_RawCount(t *testing.T) {
	p := problem.NewGEMM(5, 3, 1, 1)
	got := WavesPerSIMD{Scale: exampleScale}.Evaluate(p)
	if !approx(got, 0.3) {
		t.Errorf("expected 0.3, got %f", got)
	}
}

func TestWavesPerSIMD_NotNormalized(t *testing.T) {
	p := problem.NewGEMM(5, 3, 1, 1)
	cu := CUGranularity{Scale: exampleScale, Granularity: doubling}.Evaluate(p)
	waves := WavesPerSIMD{Scale: exampleScale}.Evaluate(p)
	if !approx(cu, 0.6) {
		t.Errorf("expected CUGranularity to pass through the granularity fn (0.6), got %f", cu)
	}
	if !approx(waves, 0.3) {
		t.Errorf("expected WavesPerSIMD to stay raw (0.3), got %f", waves)
	}
}

func TestWavesPerSIMD_ExceedsOne(t *testing.T) {
	sf := solution.ScaleFactors{MT0Scale: 1.0 / 64, MT1Scale: 1.0 / 64, DevSolScale: 0.25}
	got := WavesPerSIMD{Scale: sf}.Evaluate(problem.NewGEMM(4096, 4096, 1, 1))
	// 64 * 64 * 0.25
	if got != 1024 {
		t.Errorf("expected 1024 waves, got %f", got)
	}
}

func TestOccupancy_ZeroSize(t *testing.T) {
	p := problem.NewGEMM(0, 512, 64, 1)
	cu := CUGranularity{Scale: exampleScale}.Evaluate(p)
	waves := WavesPerSIMD{Scale: exampleScale}.Evaluate(p)
	if cu != 0 || math.IsNaN(float64(cu)) {
		t.Errorf("expected CUGranularity 0 for empty dimension, got %f", cu)
	}
	if waves != 0 {
		t.Errorf("expected WavesPerSIMD 0 for empty dimension, got %f", waves)
	}
}

func TestOccupancy_MatchesSolutionReport(t *testing.T) {
	hw := solution.DefaultHardware()
	cfg := solution.DefaultConfig()
	for _, size := range [][2]int{{1024, 1024}, {1000, 3000}, {1, 1}, {7000, 129}} {
		p := problem.NewGEMM(size[0], size[1], 64, 1)
		report := cfg.Granularities(hw, size[0], size[1], 1)
		cu := CUGranularity{Scale: cfg.CUScaleFactors(hw)}.Evaluate(p)
		waves := WavesPerSIMD{Scale: cfg.WaveScaleFactors(hw)}.Evaluate(p)
		if cu != report.CUGranularity {
			t.Errorf("%v: cu feature %f != report %f", size, cu, report.CUGranularity)
		}
		if waves != report.WavesPerSIMD {
			t.Errorf("%v: waves feature %f != report %f", size, waves, report.WavesPerSIMD)
		}
	}
}

// #endregion occupancy-tests

// #region identity-tests

func TestTypeNames_DistinctAndStable(t *testing.T) {
	all := []Feature{
		FreeSizeA{}, FreeSizeB{}, BoundSize{},
		Tile0Granularity{}, Tile1Granularity{},
		CUGranularity{}, WavesPerSIMD{},
	}
	seen := make(map[string]bool)
	for _, f := range all {
		name := f.Type()
		if seen[name] {
			t.Errorf("duplicate type name %q", name)
		}
		seen[name] = true
		if f.Type() != name {
			t.Errorf("type name of %q changed between calls", name)
		}
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 distinct names, got %d", len(seen))
	}
}

func TestTypeName_IndependentOfInstance(t *testing.T) {
	if (FreeSizeA{Index: 0}).Type() != (FreeSizeA{Index: 5}).Type() {
		t.Error("expected type name to be a property of the kind")
	}
	if (CUGranularity{}).Type() != (CUGranularity{Scale: exampleScale}).Type() {
		t.Error("expected type name to be a property of the kind")
	}
}

func TestConfigShapes(t *testing.T) {
	indexed := []Feature{FreeSizeA{Index: 2}, FreeSizeB{}, BoundSize{}}
	for _, f := range indexed {
		if !HasIndex(f.Config()) || HasValue(f.Config()) {
			t.Errorf("%s: expected indexed shape", f.Type())
		}
	}
	valued := []Feature{Tile0Granularity{}, Tile1Granularity{}, CUGranularity{}, WavesPerSIMD{}}
	for _, f := range valued {
		if HasIndex(f.Config()) || !HasValue(f.Config()) {
			t.Errorf("%s: expected valued shape", f.Type())
		}
	}
	if c, ok := (FreeSizeA{Index: 2}).Config().(Indexed); !ok || c.Index != 2 {
		t.Errorf("expected Indexed{2}, got %#v", (FreeSizeA{Index: 2}).Config())
	}
}

func TestEvaluate_Repeatable(t *testing.T) {
	p := problem.NewGEMM(1111, 2222, 333, 1)
	set := DefaultSet(solution.DefaultConfig(), solution.DefaultHardware())
	for _, f := range set.Features() {
		first := f.Evaluate(p)
		second := f.Evaluate(p)
		if math.Float32bits(first) != math.Float32bits(second) {
			t.Errorf("%s: expected bit-identical results, got %f and %f", f.Type(), first, second)
		}
	}
}

// #endregion identity-tests

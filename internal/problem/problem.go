package problem

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// #region contraction-problem

// ContractionProblem describes the shape of a tensor contraction.
// FreeA and FreeB hold the free dimensions contributed by A and B, Bound holds
// the summation dimensions, Batch the batch dimensions.
type ContractionProblem struct {
	FreeA []int `json:"free_a"`
	FreeB []int `json:"free_b"`
	Bound []int `json:"bound"`
	Batch []int `json:"batch,omitempty"`
}

// NewGEMM builds the contraction for a (batched) matrix multiply C[m,n] = A[m,k] * B[k,n].
func NewGEMM(m, n, k, batch int) ContractionProblem {
	return ContractionProblem{
		FreeA: []int{m},
		FreeB: []int{n},
		Bound: []int{k},
		Batch: []int{batch},
	}
}

// #endregion contraction-problem

// #region accessors

// FreeSizeA returns the i-th A-side free dimension. Panics when i is out of range.
func (p ContractionProblem) FreeSizeA(i int) int { return p.FreeA[i] }

// FreeSizeB returns the i-th B-side free dimension. Panics when i is out of range.
func (p ContractionProblem) FreeSizeB(i int) int { return p.FreeB[i] }

// BoundSize returns the i-th bound dimension. Panics when i is out of range.
func (p ContractionProblem) BoundSize(i int) int { return p.Bound[i] }

// BatchCount returns the product of all batch dimensions, 1 when there are none.
func (p ContractionProblem) BatchCount() int {
	n := 1
	for _, b := range p.Batch {
		n *= b
	}
	return n
}

// #endregion accessors

// #region validate

// Validate checks that every dimension family is present and no size is negative.
func (p ContractionProblem) Validate() error {
	if len(p.FreeA) == 0 {
		return errors.New("problem has no A free dimensions")
	}
	if len(p.FreeB) == 0 {
		return errors.New("problem has no B free dimensions")
	}
	if len(p.Bound) == 0 {
		return errors.New("problem has no bound dimensions")
	}
	families := []struct {
		name  string
		sizes []int
	}{
		{"free_a", p.FreeA},
		{"free_b", p.FreeB},
		{"bound", p.Bound},
		{"batch", p.Batch},
	}
	for _, f := range families {
		for i, s := range f.sizes {
			if s < 0 {
				return fmt.Errorf("%s[%d] is negative: %d", f.name, i, s)
			}
		}
	}
	return nil
}

// #endregion validate

// #region string

// String renders the problem as MxNxK, joining multi-dimensional families with '.'.
func (p ContractionProblem) String() string {
	s := joinSizes(p.FreeA) + "x" + joinSizes(p.FreeB) + "x" + joinSizes(p.Bound)
	if b := p.BatchCount(); b > 1 {
		s += "b" + strconv.Itoa(b)
	}
	return s
}

func joinSizes(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ".")
}

// #endregion string

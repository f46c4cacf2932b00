package fixture

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mlfeatures/internal/features"
	"github.com/danielpatrickdp/mlfeatures/internal/problem"
	"github.com/danielpatrickdp/mlfeatures/internal/solution"
)

// #region fixture-types

// File is the top-level JSON structure of a feature fixture.
type File struct {
	Description string             `json:"description"`
	Hardware    *solution.Hardware `json:"hardware,omitempty"`
	Solution    *solution.Config   `json:"solution,omitempty"`
	Cases       []Case             `json:"cases"`
}

// Case is one problem with the features to evaluate and, optionally, the values
// they are expected to produce.
type Case struct {
	Name     string                     `json:"name"`
	Problem  problem.ContractionProblem `json:"problem"`
	Features []features.Spec            `json:"features,omitempty"` // empty means the default set
	Expected []float32                  `json:"expected,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// Load reads and parses a JSON fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, c := range f.Cases {
		if err := c.Problem.Validate(); err != nil {
			return nil, fmt.Errorf("fixture %s case %d (%s): %w", path, i, c.Name, err)
		}
	}
	return &f, nil
}

// HardwareOrDefault returns the fixture's hardware, falling back to solution.DefaultHardware.
func (f *File) HardwareOrDefault() solution.Hardware {
	if f.Hardware != nil {
		return *f.Hardware
	}
	return solution.DefaultHardware()
}

// SolutionOrDefault returns the fixture's solution, falling back to solution.DefaultConfig.
func (f *File) SolutionOrDefault() solution.Config {
	if f.Solution != nil {
		return *f.Solution
	}
	return solution.DefaultConfig()
}

// Problems returns every case's problem in order.
func (f *File) Problems() []problem.ContractionProblem {
	out := make([]problem.ContractionProblem, len(f.Cases))
	for i, c := range f.Cases {
		out[i] = c.Problem
	}
	return out
}

// SetFor builds the feature set a case evaluates.
func (f *File) SetFor(c Case, reg *features.Registry) (features.Set, error) {
	if len(c.Features) == 0 {
		return features.DefaultSet(f.SolutionOrDefault(), f.HardwareOrDefault()), nil
	}
	return reg.BuildSet(c.Features)
}

// #endregion fixture-loader

package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/danielpatrickdp/mlfeatures/internal/features"
	"github.com/danielpatrickdp/mlfeatures/internal/problem"
	"golang.org/x/sync/errgroup"
)

// #region types

// Config controls the worker pool.
type Config struct {
	Workers int // <= 0 means runtime.NumCPU()
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

// Row is the feature vector of one input problem.
type Row struct {
	Index   int
	Problem problem.ContractionProblem
	Values  []float32
}

type job struct {
	index   int
	problem problem.ContractionProblem
}

// #endregion types

// #region evaluate

// Evaluate computes set over every problem with a fixed pool of workers. Rows are
// returned in input order. A feature that panics (for example an index past the
// problem's rank) fails the whole call with an error naming the problem.
func Evaluate(ctx context.Context, set features.Set, problems []problem.ContractionProblem, cfg Config) ([]Row, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(problems) {
		workers = len(problems)
	}
	rows := make([]Row, len(problems))
	if len(problems) == 0 {
		return rows, nil
	}

	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan job, 128)
	results := make(chan Row, 128)

	g.Go(func() error {
		defer close(jobs)
		for i, p := range problems {
			select {
			case jobs <- job{index: i, problem: p}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var wg = &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return evaluateJobs(ctx, set, jobs, results)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	g.Go(func() error {
		for row := range results {
			rows[row.Index] = row
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func evaluateJobs(ctx context.Context, set features.Set, jobs <-chan job, results chan<- Row) error {
	for j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		values, err := safeEvaluate(set, j.problem)
		if err != nil {
			return fmt.Errorf("problem %d (%s): %w", j.index, j.problem, err)
		}
		select {
		case results <- Row{Index: j.index, Problem: j.problem, Values: values}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// safeEvaluate turns a collaborator panic into an error.
func safeEvaluate(set features.Set, p problem.ContractionProblem) (values []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluate: %v", r)
		}
	}()
	return set.Evaluate(p), nil
}

// #endregion evaluate

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/danielpatrickdp/mlfeatures/internal/batch"
	"github.com/danielpatrickdp/mlfeatures/internal/dataset"
	"github.com/danielpatrickdp/mlfeatures/internal/eval"
	"github.com/danielpatrickdp/mlfeatures/internal/features"
	"github.com/danielpatrickdp/mlfeatures/internal/fixture"
	"github.com/danielpatrickdp/mlfeatures/internal/logging"
	"github.com/danielpatrickdp/mlfeatures/internal/problem"
	"github.com/danielpatrickdp/mlfeatures/internal/solution"
)

// #region main

func main() {
	input := flag.String("input", "", "fixture JSON with problems (overrides -m/-n/-k)")
	m := flag.Int("m", 0, "GEMM M")
	n := flag.Int("n", 0, "GEMM N")
	k := flag.Int("k", 0, "GEMM K")
	batchSize := flag.Int("batch", 1, "GEMM batch count")
	mt0 := flag.Int("mt0", 128, "macro tile extent along M")
	mt1 := flag.Int("mt1", 128, "macro tile extent along N")
	wgX := flag.Int("wgx", 16, "work group x")
	wgY := flag.Int("wgy", 16, "work group y")
	lsu := flag.Int("lsu", 1, "local split-u (work group z)")
	gsu := flag.Int("gsu", 1, "global split-u")
	cus := flag.Int("cus", solution.DefaultHardware().ComputeUnits, "compute units")
	workers := flag.Int("workers", 0, "evaluation workers (0 = one per CPU)")
	dbPath := flag.String("db", "", "store vectors in this SQLite database")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	hw := solution.DefaultHardware()
	hw.ComputeUnits = *cus
	cfg := solution.Config{
		MacroTile:    [2]int{*mt0, *mt1},
		WorkGroup:    [3]int{*wgX, *wgY, *lsu},
		GlobalSplitU: *gsu,
	}
	cfg.Name = fmt.Sprintf("MT%dx%d_WG%dx%dx%d_GSU%d", *mt0, *mt1, *wgX, *wgY, *lsu, *gsu)

	var problems []problem.ContractionProblem
	if *input != "" {
		f, err := fixture.Load(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if f.Solution != nil {
			cfg = *f.Solution
		}
		if f.Hardware != nil {
			hw = *f.Hardware
		}
		problems = f.Problems()
	} else {
		if *m <= 0 || *n <= 0 || *k <= 0 {
			fmt.Fprintln(os.Stderr, "usage: extract (-input fixture.json | -m M -n N -k K) [-mt0 128 -mt1 128 -gsu 1 ...] [-db vectors.db] [-json]")
			os.Exit(2)
		}
		problems = []problem.ContractionProblem{problem.NewGEMM(*m, *n, *k, *batchSize)}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "solution: %v\n", err)
		os.Exit(1)
	}
	if err := hw.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "hardware: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, hw, problems, *workers, *dbPath, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(cfg solution.Config, hw solution.Hardware, problems []problem.ContractionProblem, workers int, dbPath string, jsonOut bool) error {
	set := features.DefaultSet(cfg, hw)
	start := time.Now()
	rows, evalErr := batch.Evaluate(context.Background(), set, problems, batch.Config{Workers: workers})
	elapsed := time.Since(start)
	if evalErr == nil {
		result := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(set, rows)
		for _, m := range result.Metrics {
			if !m.Pass {
				log.Printf("check %s: %g", m.Name, m.Value)
			}
		}
		if !result.Passed {
			evalErr = fmt.Errorf("validate vectors: %s", result.Reason)
		}
	}

	if dbPath != "" {
		if err := store(dbPath, cfg, set, rows, evalErr, len(problems), elapsed); err != nil {
			return err
		}
	}
	if evalErr != nil {
		return evalErr
	}

	if jsonOut {
		return printJSON(set.Names(), rows)
	}
	printTable(set.Names(), rows)
	return nil
}

func store(dbPath string, cfg solution.Config, set features.Set, rows []batch.Row, evalErr error, count int, elapsed time.Duration) error {
	st, err := dataset.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()
	if err := logging.EnsureSchema(st.DB()); err != nil {
		return err
	}

	entry := logging.Entry{
		Trigger:      "cli",
		ProblemCount: count,
		FeatureCount: set.Len(),
		Duration:     elapsed,
		Status:       logging.StatusOK,
	}
	if evalErr != nil {
		entry.Status = logging.StatusFailed
		entry.Reason = evalErr.Error()
		return logging.LogExtraction(st.DB(), entry)
	}

	r, err := st.CreateRun(cfg.Name, set.Names())
	if err != nil {
		return err
	}
	if err := st.AppendVectors(r.RunID, rows); err != nil {
		return err
	}
	entry.RunID = r.RunID
	if err := logging.LogExtraction(st.DB(), entry); err != nil {
		return err
	}
	log.Printf("stored %d vectors in run %s", len(rows), r.RunID)
	return nil
}

// #endregion run

// #region output

type jsonRow struct {
	Problem string             `json:"problem"`
	Values  map[string]float32 `json:"values"`
}

func printJSON(names []string, rows []batch.Row) error {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		vals := make(map[string]float32, len(names))
		for j, name := range names {
			vals[name] = r.Values[j]
		}
		out[i] = jsonRow{Problem: r.Problem.String(), Values: vals}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printTable(names []string, rows []batch.Row) {
	fmt.Printf("%-20s", "Problem")
	for _, name := range names {
		fmt.Printf("  %16s", name)
	}
	fmt.Println()
	for _, r := range rows {
		fmt.Printf("%-20s", r.Problem.String())
		for _, v := range r.Values {
			fmt.Printf("  %16.6f", v)
		}
		fmt.Println()
	}
}

// #endregion output

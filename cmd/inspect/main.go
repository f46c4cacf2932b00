package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/mlfeatures/internal/dataset"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to feature vector database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show the vectors of a single run")
	feature := flag.String("feature", "", "restrict run detail to one feature column")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/vectors.db [--last N] [--run id] [--feature name] [--json]")
		os.Exit(2)
	}

	store, err := dataset.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *feature, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID    string `json:"run_id"`
	Solution string `json:"solution"`
	Features int    `json:"features"`
	Vectors  int    `json:"vectors"`
	Created  string `json:"created_at"`
}

func runListMode(store *dataset.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:    r.RunID,
			Solution: r.SolutionName,
			Features: len(r.FeatureNames),
			Vectors:  r.VectorCount,
			Created:  r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-12s  %-32s  %8s  %8s  %s\n", "Run", "Solution", "Features", "Vectors", "Time")
	fmt.Printf("%-12s+-%-32s+-%8s+-%8s+-%s\n",
		"------------", "--------------------------------", "--------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-32s  %8d  %8d  %s\n", shortID(r.RunID), r.Solution, r.Features, r.Vectors, r.Created)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID    string             `json:"run_id"`
	Solution string             `json:"solution"`
	Created  string             `json:"created_at"`
	Features []string           `json:"features"`
	Means    map[string]float64 `json:"means"`
	Vectors  []detailVector     `json:"vectors"`
}

type detailVector struct {
	Problem string             `json:"problem"`
	Values  map[string]float32 `json:"values"`
}

func runDetailMode(store *dataset.Store, runID, featureFilter string, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	recs, err := store.ListVectors(runID)
	if err != nil {
		return err
	}

	cols := make([]int, 0, len(run.FeatureNames))
	for i, name := range run.FeatureNames {
		if featureFilter == "" || name == featureFilter {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		return fmt.Errorf("run %s has no feature %q (have %s)", shortID(runID), featureFilter, strings.Join(run.FeatureNames, ", "))
	}

	out := detailOutput{
		RunID:    run.RunID,
		Solution: run.SolutionName,
		Created:  run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Vectors:  make([]detailVector, len(recs)),
	}
	for _, c := range cols {
		out.Features = append(out.Features, run.FeatureNames[c])
	}
	for i, rec := range recs {
		vals := make(map[string]float32, len(cols))
		for _, c := range cols {
			vals[run.FeatureNames[c]] = rec.Values[c]
		}
		out.Vectors[i] = detailVector{Problem: rec.Problem.String(), Values: vals}
	}
	out.Means = columnMeans(recs, run.FeatureNames, cols)

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:      %s\n", out.RunID)
	fmt.Printf("Solution: %s\n", out.Solution)
	fmt.Printf("Created:  %s\n", out.Created)
	fmt.Printf("Vectors:  %d\n\n", len(recs))

	fmt.Printf("%-20s", "Problem")
	for _, name := range out.Features {
		fmt.Printf("  %16s", name)
	}
	fmt.Println()
	for _, v := range out.Vectors {
		fmt.Printf("%-20s", v.Problem)
		for _, name := range out.Features {
			fmt.Printf("  %16.6f", v.Values[name])
		}
		fmt.Println()
	}

	fmt.Printf("\nFeature means:\n")
	for _, name := range out.Features {
		fmt.Printf("  %-20s %.6f\n", name, out.Means[name])
	}
	return nil
}

// #endregion detail-mode

// #region metrics

func columnMeans(recs []dataset.VectorRecord, names []string, cols []int) map[string]float64 {
	means := make(map[string]float64, len(cols))
	if len(recs) == 0 {
		return means
	}
	for _, c := range cols {
		var sum float64
		for _, rec := range recs {
			sum += float64(rec.Values[c])
		}
		means[names[c]] = sum / float64(len(recs))
	}
	return means
}

// #endregion metrics

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output

// Command inspect lists and details archived sampling runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the trajectory archive")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/archive.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	arc, err := trajectory.NewArchive(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open archive: %v\n", err)
		os.Exit(1)
	}
	defer arc.Close()

	if *runID != "" {
		err = runDetailMode(arc, *runID, *jsonOut)
	} else {
		err = runListMode(arc, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(arc *trajectory.Archive, last int, jsonOut bool) error {
	runs, err := arc.ListRuns(last)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	fmt.Printf("%-36s  %-14s  %-13s  %6s  %12s  %s\n",
		"RUN", "PRIOR", "SAMPLER", "POINTS", "FINAL_E", "STATUS")
	for _, r := range runs {
		status := "ok"
		if r.RunError != "" {
			status = "truncated: " + r.RunError
		}
		finalE := "-"
		if r.HasEnergy {
			finalE = fmt.Sprintf("%.6f", r.FinalEnergy)
		}
		fmt.Printf("%-36s  %-14s  %-13s  %6d  %12s  %s\n",
			r.RunID, r.Prior, r.Sampler, r.Steps, finalE, status)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(arc *trajectory.Archive, runID string, jsonOut bool) error {
	traj, err := arc.GetRun(runID)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(traj)
	}

	fmt.Printf("run %s: prior=%s sampler=%s points=%d\n", traj.RunID, traj.Prior, traj.Sampler, traj.Len())
	for k, v := range traj.Metadata {
		fmt.Printf("  meta %s=%s\n", k, v)
	}
	trace, err := arc.GetTrace(runID)
	if err != nil {
		return err
	}
	for i, e := range trace {
		fmt.Printf("  step %4d  energy %.6f\n", i, e)
	}
	return nil
}

// #endregion detail-mode

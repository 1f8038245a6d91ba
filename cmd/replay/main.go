// Command replay re-runs recorded sampling scenarios. Fixture mode runs a
// JSON fixture through the engine and checks its expectations; archive
// mode re-executes an archived run's config and compares the energy
// trace (a determinism check for seeded runs).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/priors"
	"github.com/veridyne/twinsampler/internal/replay"
	"github.com/veridyne/twinsampler/internal/sampling"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	dbPath := flag.String("db", "", "path to trajectory archive (archive mode)")
	runID := flag.String("run", "", "archived run id to re-execute (archive mode)")
	tolerance := flag.Float64("tolerance", 1e-12, "per-step energy tolerance in archive mode")
	flag.Parse()

	fixtureMode := *fixturePath != ""
	archiveMode := *dbPath != "" && *runID != ""
	if fixtureMode == archiveMode {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/archive.db --run <id> [--tolerance t]")
		os.Exit(2)
	}

	svc, err := newService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var exitCode int
	if fixtureMode {
		exitCode = runFixtureMode(svc, *fixturePath)
	} else {
		exitCode = runArchiveMode(svc, *dbPath, *runID, *tolerance)
	}
	os.Exit(exitCode)
}

func newService() (*sampling.Service, error) {
	reg := prior.NewRegistry()
	if err := priors.RegisterBuiltins(reg, priors.DefaultCatalog()); err != nil {
		return nil, err
	}
	return sampling.NewService(reg), nil
}

// #endregion main

// #region fixture-mode

func runFixtureMode(svc *sampling.Service, path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	res := replay.Run(context.Background(), svc, f)
	if res.Passed {
		fmt.Printf("PASS: %s\n", f.Description)
		return 0
	}
	fmt.Printf("FAIL: %s\n", f.Description)
	for _, failure := range res.Failures {
		fmt.Printf("  %s\n", failure)
	}
	return 1
}

// #endregion fixture-mode

// #region archive-mode

func runArchiveMode(svc *sampling.Service, dbPath, runID string, tolerance float64) int {
	arc, err := trajectory.NewArchive(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open archive: %v\n", err)
		return 1
	}
	defer arc.Close()

	orig, err := arc.GetRun(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if orig.Len() == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no recorded points\n", runID)
		return 1
	}

	var cfgJSON, initialJSON string
	err = arc.DB().QueryRow(
		`SELECT config_json, initial_json FROM runs WHERE run_id = ?`, runID,
	).Scan(&cfgJSON, &initialJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load run config: %v\n", err)
		return 1
	}
	var cfg sampling.Config
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parse config: %v\n", err)
		return 1
	}
	var initial state.State
	if err := json.Unmarshal([]byte(initialJSON), &initial); err != nil {
		fmt.Fprintf(os.Stderr, "parse initial state: %v\n", err)
		return 1
	}
	if cfg.Seed == nil {
		fmt.Fprintf(os.Stderr, "run %s is unseeded; archive-mode replay needs a seeded run\n", runID)
		return 1
	}

	traj, err := svc.Sample(context.Background(), orig.Prior, initial, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "re-run: %v\n", err)
		return 1
	}

	want := orig.EnergyTrace()
	got := traj.EnergyTrace()
	if len(want) != len(got) {
		fmt.Printf("FAIL: trace length changed: %d -> %d\n", len(want), len(got))
		return 1
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > tolerance {
			fmt.Printf("FAIL: energy diverges at step %d: %.12f -> %.12f\n", i, want[i], got[i])
			return 1
		}
	}
	fmt.Printf("PASS: run %s reproduced (%d points)\n", runID, len(got))
	if err := arc.LogEvent(runID, "replay_pass", ""); err != nil {
		fmt.Fprintf(os.Stderr, "log: %v\n", err)
	}
	return 0
}

// #endregion archive-mode

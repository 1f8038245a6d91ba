// Command fixture-export turns an archived run into a replay fixture,
// pinning the recorded energy trace as the expectation.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/veridyne/twinsampler/internal/replay"
	"github.com/veridyne/twinsampler/internal/sampling"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the trajectory archive")
	runID := flag.String("run", "", "run id to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	tolerance := flag.Float64("tolerance", 1e-12, "per-step energy tolerance written into the fixture")
	flag.Parse()

	if *dbPath == "" || *runID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/archive.db --run <id> --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath, *tolerance); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, runID, outPath string, tolerance float64) error {
	arc, err := trajectory.NewArchive(dbPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer arc.Close()

	traj, err := arc.GetRun(runID)
	if err != nil {
		return err
	}

	var cfgJSON, initialJSON sql.NullString
	err = arc.DB().QueryRow(
		`SELECT config_json, initial_json FROM runs WHERE run_id = ?`, runID,
	).Scan(&cfgJSON, &initialJSON)
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}
	if !cfgJSON.Valid || !initialJSON.Valid {
		return fmt.Errorf("run %s lacks config or initial state; cannot export", runID)
	}

	var cfg sampling.Config
	if err := json.Unmarshal([]byte(cfgJSON.String), &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	var initial map[string][]float64
	if err := json.Unmarshal([]byte(initialJSON.String), &initial); err != nil {
		return fmt.Errorf("parse initial state: %w", err)
	}
	if cfg.Seed == nil {
		return fmt.Errorf("run %s is unseeded; fixtures need reproducible runs", runID)
	}

	f := replay.Fixture{
		Description:  fmt.Sprintf("exported from run %s (%s/%s)", runID, traj.Prior, traj.Sampler),
		Prior:        traj.Prior,
		Config:       cfg,
		InitialState: initial,
		Expect: replay.Expectations{
			Points:      traj.Len(),
			EnergyTrace: traj.EnergyTrace(),
			Tolerance:   tolerance,
		},
	}
	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d expected points)\n", outPath, traj.Len())
	return nil
}

// #endregion export

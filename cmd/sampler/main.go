// Command sampler runs one sampling job against a registered prior,
// archives the trajectory, and prints the energy summary plus
// diagnostics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/veridyne/twinsampler/internal/config"
	"github.com/veridyne/twinsampler/internal/diagnostics"
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/priors"
	"github.com/veridyne/twinsampler/internal/sampling"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/telemetry"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region main

func main() {
	priorKey := flag.String("prior", "quadratic_v1", "prior key, e.g. fusion_v1")
	samplerType := flag.String("type", "langevin", "sampler: langevin|ddpm|ddim|energy_guided")
	steps := flag.Int("steps", 100, "number of steps")
	lr := flag.Float64("lr", 0.01, "langevin step size")
	noise := flag.Float64("noise", 0, "noise scale (langevin) / noise rescale (ddpm)")
	guidance := flag.Float64("guidance", 0.5, "energy_guided blend in [0,1]")
	scheduler := flag.String("scheduler", "linear", "diffusion schedule: linear|cosine|boltzmann")
	seed := flag.Int64("seed", -1, "rng seed; negative means time-based")
	statePath := flag.String("state", "", "path to initial state JSON ({\"field\": [..]})")
	noArchive := flag.Bool("no-archive", false, "skip writing the run to the archive")
	flag.Parse()

	envCfg, err := config.ParseEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, "twinsampler")
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer shutdown(ctx)

	reg := prior.NewRegistry()
	cat := priors.DefaultCatalog()
	if envCfg.CatalogPath != "" {
		if cat, err = priors.LoadCatalog(envCfg.CatalogPath); err != nil {
			log.Fatalf("catalog: %v", err)
		}
	}
	if err := priors.RegisterBuiltins(reg, cat); err != nil {
		log.Fatalf("register priors: %v", err)
	}

	initial, err := loadState(*statePath, *priorKey)
	if err != nil {
		log.Fatalf("initial state: %v", err)
	}

	cfg := sampling.Config{
		Type:     sampling.Type(*samplerType),
		Steps:    *steps,
		LR:       *lr,
		Noise:    *noise,
		Guidance: *guidance,
		Schedule: *scheduler,
		Backend:  envCfg.Backend,
	}
	if *seed >= 0 {
		cfg.Seed = seed
	}

	svc := sampling.NewService(reg)
	traj, runErr := svc.Sample(ctx, *priorKey, initial, cfg)
	if traj == nil {
		log.Fatalf("sample: %v", runErr)
	}

	printSummary(traj, runErr)
	report := diagnostics.Run(traj, diagnostics.DefaultConfig())
	printDiagnostics(report)

	if !*noArchive {
		if err := archive(envCfg.ArchivePath, traj, cfg, initial, runErr, report); err != nil {
			log.Fatalf("archive: %v", err)
		}
		fmt.Printf("archived run %s to %s\n", traj.RunID, envCfg.ArchivePath)
	}

	if runErr != nil || !report.Passed {
		os.Exit(1)
	}
}

// #endregion main

// #region state-loading

// loadState reads the initial state file, or falls back to a small demo
// state matching the prior's required fields.
func loadState(path, priorKey string) (state.State, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read state: %w", err)
		}
		var s state.State
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse state: %w", err)
		}
		return s, nil
	}
	return demoState(priorKey), nil
}

func demoState(priorKey string) state.State {
	switch {
	case strings.HasPrefix(priorKey, "fusion"):
		return state.State{
			"B":   {1.2, 1.1, 1.3, 1.2},
			"rho": {1.0, 0.9, 1.1, 1.0},
			"v":   {0.8, 1.0, 0.9, 1.1},
		}
	case strings.HasPrefix(priorKey, "grid"):
		return state.State{
			"injection": {100, 250, 75},
			"demand":    {110, 240, 80},
			"frequency": {49.98, 50.02},
		}
	case strings.HasPrefix(priorKey, "cnc"):
		return state.State{
			"position": {0, 0.5, 1.2, 1.8, 2.1},
			"feed":     {5, 6, 8, 7, 5},
		}
	default:
		return state.State{"state_vector": {10, -8, 6, -4}}
	}
}

// #endregion state-loading

// #region output

func printSummary(traj *trajectory.Trajectory, runErr error) {
	trace := traj.EnergyTrace()
	fmt.Printf("run %s: prior=%s sampler=%s points=%d\n", traj.RunID, traj.Prior, traj.Sampler, traj.Len())
	if len(trace) > 0 {
		fmt.Printf("  energy: first=%.6f final=%.6f\n", trace[0], trace[len(trace)-1])
	}
	for k, v := range traj.Metadata {
		fmt.Printf("  meta %s=%s\n", k, v)
	}
	if runErr != nil {
		fmt.Printf("  truncated: %v\n", runErr)
	}
}

func printDiagnostics(report diagnostics.Report) {
	verdict := "pass"
	if !report.Passed {
		verdict = "FAIL"
	}
	fmt.Printf("diagnostics: %s\n", verdict)
	for _, m := range report.Metrics {
		fmt.Printf("  %-22s %12.6f  pass=%v\n", m.Name, m.Value, m.Pass)
	}
	for _, r := range report.FailReasons {
		fmt.Printf("  reason: %s\n", r)
	}
}

func archive(path string, traj *trajectory.Trajectory, cfg sampling.Config, initial state.State, runErr error, report diagnostics.Report) error {
	arc, err := trajectory.NewArchive(path)
	if err != nil {
		return err
	}
	defer arc.Close()

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	initialJSON, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("marshal initial state: %w", err)
	}
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	if err := arc.SaveRun(traj, string(cfgJSON), string(initialJSON), errText); err != nil {
		return err
	}

	event := "diagnostics_pass"
	if !report.Passed {
		event = "diagnostics_fail"
	}
	return arc.LogEvent(traj.RunID, event, strings.Join(report.FailReasons, "; "))
}

// #endregion output

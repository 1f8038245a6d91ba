// Package diagnostics runs lightweight post-run validation on a sealed
// trajectory and produces the anomaly signals downstream digital-twin
// layers consume: energy-trace behavior, final-state bounds, finiteness.
package diagnostics

import (
	"fmt"

	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region config

// Config holds thresholds for trajectory diagnostics.
type Config struct {
	MaxFinalNorm    float64 // cap on the final state's flattened L2 norm
	MaxRiseFraction float64 // tolerated fraction of energy-increasing steps
	MinEnergyDrop   float64 // required first-to-final energy drop (absolute)
}

// DefaultConfig returns thresholds loose enough for stochastic samplers.
func DefaultConfig() Config {
	return Config{
		MaxFinalNorm:    1e4,
		MaxRiseFraction: 0.5,
		MinEnergyDrop:   0,
	}
}

// #endregion config

// #region report

// Metric is one named diagnostic with its pass verdict.
type Metric struct {
	Name  string
	Value float64
	Pass  bool
}

// Report is the outcome of a diagnostics run.
type Report struct {
	Passed      bool
	Metrics     []Metric
	FailReasons []string
}

// #endregion report

// #region run

// Run evaluates a sealed trajectory. Empty trajectories fail outright:
// a run that recorded nothing produced no usable sample.
func Run(t *trajectory.Trajectory, cfg Config) Report {
	if t.Len() == 0 {
		return Report{Passed: false, FailReasons: []string{"empty trajectory"}}
	}

	var report Report
	report.Passed = true
	fail := func(reason string) {
		report.Passed = false
		report.FailReasons = append(report.FailReasons, reason)
	}

	trace := t.EnergyTrace()

	// 1. Final state norm bound.
	finalNorm := t.FinalState().Norm()
	normPass := finalNorm <= cfg.MaxFinalNorm
	report.Metrics = append(report.Metrics, Metric{Name: "final_state_norm", Value: finalNorm, Pass: normPass})
	if !normPass {
		fail(fmt.Sprintf("final state norm %.4f exceeds %.4f", finalNorm, cfg.MaxFinalNorm))
	}

	// 2. Fraction of steps where energy rose.
	rises := 0
	for i := 1; i < len(trace); i++ {
		if trace[i] > trace[i-1] {
			rises++
		}
	}
	riseFrac := 0.0
	if len(trace) > 1 {
		riseFrac = float64(rises) / float64(len(trace)-1)
	}
	risePass := riseFrac <= cfg.MaxRiseFraction
	report.Metrics = append(report.Metrics, Metric{Name: "energy_rise_fraction", Value: riseFrac, Pass: risePass})
	if !risePass {
		fail(fmt.Sprintf("energy rose on %.0f%% of steps (cap %.0f%%)", riseFrac*100, cfg.MaxRiseFraction*100))
	}

	// 3. Net energy drop from first to final point.
	drop := trace[0] - trace[len(trace)-1]
	dropPass := drop >= cfg.MinEnergyDrop
	report.Metrics = append(report.Metrics, Metric{Name: "energy_drop", Value: drop, Pass: dropPass})
	if !dropPass {
		fail(fmt.Sprintf("energy drop %.6f below required %.6f", drop, cfg.MinEnergyDrop))
	}

	return report
}

// #endregion run

package diagnostics

import (
	"testing"

	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

func trajFromTrace(energies []float64, finalState state.State) *trajectory.Trajectory {
	t := trajectory.New("quadratic_v1", "langevin")
	for i, e := range energies {
		s := state.State{"x": {0}}
		if i == len(energies)-1 {
			s = finalState
		}
		t.Append(i, e, s)
	}
	t.Seal()
	return t
}

func TestEmptyTrajectoryFails(t *testing.T) {
	traj := trajectory.New("quadratic_v1", "langevin")
	traj.Seal()
	report := Run(traj, DefaultConfig())
	if report.Passed {
		t.Fatal("empty trajectory should fail diagnostics")
	}
}

func TestCleanDescentPasses(t *testing.T) {
	traj := trajFromTrace([]float64{100, 50, 25, 12, 6}, state.State{"x": {1}})
	report := Run(traj, DefaultConfig())
	if !report.Passed {
		t.Fatalf("expected pass, reasons: %v", report.FailReasons)
	}
	if len(report.Metrics) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(report.Metrics))
	}
}

func TestFinalNormBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFinalNorm = 10
	traj := trajFromTrace([]float64{100, 50}, state.State{"x": {100}})
	report := Run(traj, cfg)
	if report.Passed {
		t.Fatal("oversized final state should fail")
	}
	if report.Metrics[0].Name != "final_state_norm" || report.Metrics[0].Pass {
		t.Fatalf("final_state_norm metric should fail: %+v", report.Metrics[0])
	}
}

func TestRiseFractionBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRiseFraction = 0.25
	// 3 of 4 transitions rise.
	traj := trajFromTrace([]float64{1, 2, 3, 4, 0.5}, state.State{"x": {0}})
	report := Run(traj, cfg)
	if report.Passed {
		t.Fatal("mostly-rising trace should fail")
	}
}

func TestMinEnergyDrop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinEnergyDrop = 50
	traj := trajFromTrace([]float64{100, 80, 60}, state.State{"x": {0}})
	report := Run(traj, cfg)
	if report.Passed {
		t.Fatal("drop of 40 should fail a 50 requirement")
	}

	cfg.MinEnergyDrop = 30
	report = Run(traj, cfg)
	if !report.Passed {
		t.Fatalf("drop of 40 should pass a 30 requirement: %v", report.FailReasons)
	}
}

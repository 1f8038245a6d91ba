package trajectory

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/veridyne/twinsampler/internal/state"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	arc, err := NewArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { arc.Close() })
	return arc
}

func sampleTrajectory() *Trajectory {
	traj := New("quadratic_v1", "langevin")
	traj.SetMeta("gradient_source", "analytic")
	traj.SetMeta("backend", "native")
	traj.Append(0, 100, state.State{"state_vector": {10, 0}})
	traj.Append(1, 96.04, state.State{"state_vector": {9.8, 0}})
	traj.Append(2, 92.23, state.State{"state_vector": {9.604, 0}})
	traj.Seal()
	return traj
}

func TestSaveAndGetRun(t *testing.T) {
	arc := testArchive(t)
	traj := sampleTrajectory()

	if err := arc.SaveRun(traj, `{"type":"langevin"}`, `{"state_vector":[10,0]}`, ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := arc.GetRun(traj.RunID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Prior != "quadratic_v1" || got.Sampler != "langevin" {
		t.Fatalf("identity changed: %s/%s", got.Prior, got.Sampler)
	}
	if got.Len() != traj.Len() {
		t.Fatalf("expected %d points, got %d", traj.Len(), got.Len())
	}
	for i := range traj.Points {
		if got.Points[i].Step != traj.Points[i].Step {
			t.Fatalf("step order changed at %d", i)
		}
		if math.Abs(got.Points[i].Energy-traj.Points[i].Energy) > 1e-12 {
			t.Fatalf("energy changed at %d: %f -> %f", i, traj.Points[i].Energy, got.Points[i].Energy)
		}
		if got.Points[i].State["state_vector"][0] != traj.Points[i].State["state_vector"][0] {
			t.Fatalf("state changed at %d", i)
		}
	}
	if got.Metadata["gradient_source"] != "analytic" {
		t.Fatalf("metadata lost: %v", got.Metadata)
	}

	// Reloaded trajectories come back sealed.
	if err := got.Append(99, 0, state.State{"x": {0}}); err == nil {
		t.Fatal("reloaded trajectory accepted an append")
	}
}

func TestGetRunUnknown(t *testing.T) {
	arc := testArchive(t)
	if _, err := arc.GetRun("no-such-run"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestListRuns(t *testing.T) {
	arc := testArchive(t)

	first := sampleTrajectory()
	if err := arc.SaveRun(first, "", "", ""); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := New("fusion_v1", "ddim")
	second.Append(0, 3.5, state.State{"B": {1}, "rho": {1}, "v": {1}})
	second.Seal()
	if err := arc.SaveRun(second, "", "", "divergence at step 1"); err != nil {
		t.Fatalf("save second: %v", err)
	}

	runs, err := arc.ListRuns(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	byID := map[string]RunSummary{}
	for _, r := range runs {
		byID[r.RunID] = r
	}
	if byID[second.RunID].RunError != "divergence at step 1" {
		t.Fatalf("run error lost: %q", byID[second.RunID].RunError)
	}
	if !byID[first.RunID].HasEnergy || math.Abs(byID[first.RunID].FinalEnergy-92.23) > 1e-12 {
		t.Fatalf("final energy wrong: %+v", byID[first.RunID])
	}
}

func TestTraceRoundTrip(t *testing.T) {
	arc := testArchive(t)
	traj := sampleTrajectory()
	if err := arc.SaveRun(traj, "", "", ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	trace, err := arc.GetTrace(traj.RunID)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	want := traj.EnergyTrace()
	if len(trace) != len(want) {
		t.Fatalf("trace length %d, want %d", len(trace), len(want))
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace diverges at %d: %v vs %v", i, trace[i], want[i])
		}
	}
}

func TestLogEvent(t *testing.T) {
	arc := testArchive(t)
	traj := sampleTrajectory()
	if err := arc.SaveRun(traj, "", "", ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := arc.LogEvent(traj.RunID, "diagnostics_pass", ""); err != nil {
		t.Fatalf("log: %v", err)
	}

	var count int
	err := arc.DB().QueryRow(`SELECT COUNT(*) FROM run_log WHERE run_id = ?`, traj.RunID).Scan(&count)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 log row, got %d", count)
	}
}

package trajectory

import (
	"errors"
	"testing"

	"github.com/veridyne/twinsampler/internal/state"
)

func TestAppendClonesState(t *testing.T) {
	traj := New("quadratic_v1", "langevin")
	s := state.State{"state_vector": {1, 2}}
	if err := traj.Append(0, 5, s); err != nil {
		t.Fatalf("append: %v", err)
	}

	s["state_vector"][0] = 99
	if traj.Points[0].State["state_vector"][0] != 1 {
		t.Fatal("recorded point shares memory with the sampler's state")
	}
}

func TestSealStopsAppends(t *testing.T) {
	traj := New("quadratic_v1", "langevin")
	if err := traj.Append(0, 1, state.State{"x": {1}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	traj.Seal()
	if err := traj.Append(1, 0, state.State{"x": {0}}); !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
	if traj.Len() != 1 {
		t.Fatalf("sealed trajectory grew to %d points", traj.Len())
	}
}

func TestSetMetaAfterSeal(t *testing.T) {
	traj := New("quadratic_v1", "ddim")
	traj.Seal()
	traj.SetMeta("backend", "native")
	if traj.Metadata["backend"] != "native" {
		t.Fatal("metadata annotation should survive sealing")
	}
}

func TestProjections(t *testing.T) {
	traj := New("quadratic_v1", "langevin")

	if _, ok := traj.FinalEnergy(); ok {
		t.Fatal("empty trajectory reported a final energy")
	}
	if traj.FinalState() != nil {
		t.Fatal("empty trajectory reported a final state")
	}

	for i, e := range []float64{9, 4, 1} {
		if err := traj.Append(i, e, state.State{"x": {float64(i)}}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	trace := traj.EnergyTrace()
	if len(trace) != 3 || trace[0] != 9 || trace[2] != 1 {
		t.Fatalf("unexpected trace %v", trace)
	}
	if e, ok := traj.FinalEnergy(); !ok || e != 1 {
		t.Fatalf("expected final energy 1, got %f (ok=%v)", e, ok)
	}
	if fs := traj.FinalState(); fs["x"][0] != 2 {
		t.Fatalf("unexpected final state %v", fs)
	}
}

func TestRunIDsUnique(t *testing.T) {
	a := New("p", "s")
	b := New("p", "s")
	if a.RunID == b.RunID {
		t.Fatal("two trajectories share a run id")
	}
	if a.RunID == "" {
		t.Fatal("empty run id")
	}
}

package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/priors"
	"github.com/veridyne/twinsampler/internal/sampling"
)

func newService(t *testing.T) *sampling.Service {
	t.Helper()
	reg := prior.NewRegistry()
	if err := priors.RegisterBuiltins(reg, priors.DefaultCatalog()); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	return sampling.NewService(reg)
}

func seed(v int64) *int64 { return &v }

func TestFixtureRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	in := Fixture{
		Description:  "langevin descent on the bowl",
		Prior:        "quadratic_v1",
		Config:       sampling.Config{Type: sampling.TypeLangevin, Steps: 50, LR: 0.01, Seed: seed(7)},
		InitialState: map[string][]float64{"state_vector": {10, -8}},
		Expect:       Expectations{Points: 51},
	}
	if err := WriteFixture(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Prior != in.Prior || out.Expect.Points != 51 {
		t.Fatalf("fixture changed in transit: %+v", out)
	}
	if out.Config.Seed == nil || *out.Config.Seed != 7 {
		t.Fatalf("seed lost: %+v", out.Config)
	}
}

func TestLoadFixtureRequiresPrior(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := WriteFixture(path, Fixture{Description: "no prior"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for fixture without prior")
	}
}

func TestFixtureStateCopies(t *testing.T) {
	f := Fixture{InitialState: map[string][]float64{"x": {1, 2}}}
	s := f.State()
	s["x"][0] = 99
	if f.InitialState["x"][0] != 1 {
		t.Fatal("State() aliases the fixture's vectors")
	}
}

func TestRunPassingFixture(t *testing.T) {
	svc := newService(t)
	cap := 0.01
	f := Fixture{
		Description:  "descent reaches the basin",
		Prior:        "quadratic_v1",
		Config:       sampling.Config{Type: sampling.TypeLangevin, Steps: 500, LR: 0.01, Seed: seed(1)},
		InitialState: map[string][]float64{"state_vector": {5, -5}},
		Expect:       Expectations{Points: 501, FinalEnergyMax: &cap},
	}

	res := Run(context.Background(), svc, f)
	if !res.Passed {
		t.Fatalf("expected pass, failures: %v", res.Failures)
	}
	if res.Trajectory == nil || res.Trajectory.Len() != 501 {
		t.Fatal("result should carry the trajectory")
	}
}

func TestRunFailsOnPointMismatch(t *testing.T) {
	svc := newService(t)
	f := Fixture{
		Description:  "wrong point count",
		Prior:        "quadratic_v1",
		Config:       sampling.Config{Type: sampling.TypeLangevin, Steps: 10, LR: 0.01, Seed: seed(1)},
		InitialState: map[string][]float64{"state_vector": {1}},
		Expect:       Expectations{Points: 99},
	}

	res := Run(context.Background(), svc, f)
	if res.Passed {
		t.Fatal("expected failure on point mismatch")
	}
}

func TestRunWantError(t *testing.T) {
	svc := newService(t)
	f := Fixture{
		Description:  "missing field is rejected",
		Prior:        "fusion_v1",
		Config:       sampling.Config{Type: sampling.TypeLangevin, Steps: 10, LR: 0.01},
		InitialState: map[string][]float64{"B": {1}},
		Expect:       Expectations{WantError: "missing required field"},
	}

	res := Run(context.Background(), svc, f)
	if !res.Passed {
		t.Fatalf("expected pass, failures: %v", res.Failures)
	}

	f.Expect.WantError = "some other failure"
	res = Run(context.Background(), svc, f)
	if res.Passed {
		t.Fatal("mismatched error text should fail")
	}
}

func TestRunPinsEnergyTrace(t *testing.T) {
	// A seeded ddim run is bit-reproducible, so its own trace replays
	// within zero tolerance — and a perturbed trace fails.
	svc := newService(t)
	f := Fixture{
		Description:  "ddim determinism",
		Prior:        "quadratic_v1",
		Config:       sampling.Config{Type: sampling.TypeDDIM, Steps: 25, Schedule: "linear", Seed: seed(42)},
		InitialState: map[string][]float64{"state_vector": {2, -1}},
	}

	first := Run(context.Background(), svc, f)
	if !first.Passed {
		t.Fatalf("baseline run failed: %v", first.Failures)
	}

	f.Expect.EnergyTrace = first.Trajectory.EnergyTrace()
	res := Run(context.Background(), svc, f)
	if !res.Passed {
		t.Fatalf("pinned trace should replay exactly, failures: %v", res.Failures)
	}

	f.Expect.EnergyTrace[3] += 1e-6
	res = Run(context.Background(), svc, f)
	if res.Passed {
		t.Fatal("perturbed trace should fail")
	}
}

package replay

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/veridyne/twinsampler/internal/sampling"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region result

// Result captures the verdict of replaying one fixture.
type Result struct {
	Description string
	Passed      bool
	Failures    []string
	Trajectory  *trajectory.Trajectory
}

// #endregion result

// #region run

// Run replays a fixture through the service and checks every expectation.
// Operates entirely in-memory.
func Run(ctx context.Context, svc *sampling.Service, f Fixture) Result {
	res := Result{Description: f.Description, Passed: true}
	fail := func(format string, args ...interface{}) {
		res.Passed = false
		res.Failures = append(res.Failures, fmt.Sprintf(format, args...))
	}

	traj, err := svc.Sample(ctx, f.Prior, f.State(), f.Config)
	res.Trajectory = traj

	if f.Expect.WantError != "" {
		if err == nil {
			fail("expected error containing %q, got none", f.Expect.WantError)
		} else if !strings.Contains(err.Error(), f.Expect.WantError) {
			fail("expected error containing %q, got: %v", f.Expect.WantError, err)
		}
		return res
	}
	if err != nil {
		fail("unexpected error: %v", err)
		return res
	}

	if f.Expect.Points > 0 && traj.Len() != f.Expect.Points {
		fail("expected %d points, got %d", f.Expect.Points, traj.Len())
	}

	if f.Expect.FinalEnergyMax != nil {
		final, ok := traj.FinalEnergy()
		if !ok {
			fail("empty trajectory, no final energy")
		} else if final > *f.Expect.FinalEnergyMax {
			fail("final energy %.6f exceeds cap %.6f", final, *f.Expect.FinalEnergyMax)
		}
	}

	if len(f.Expect.EnergyTrace) > 0 {
		got := traj.EnergyTrace()
		if len(got) != len(f.Expect.EnergyTrace) {
			fail("expected trace of %d energies, got %d", len(f.Expect.EnergyTrace), len(got))
		} else {
			for i, want := range f.Expect.EnergyTrace {
				if math.Abs(got[i]-want) > f.Expect.Tolerance {
					fail("trace diverges at step %d: want %.9f, got %.9f (tol %g)",
						i, want, got[i], f.Expect.Tolerance)
					break
				}
			}
		}
	}

	return res
}

// #endregion run

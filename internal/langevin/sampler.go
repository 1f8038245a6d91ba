// Package langevin implements stochastic gradient-descent sampling over
// an energy landscape: x ← x − lr·w·∇E + noise·ε. With noise > 0 the walk
// asymptotically samples a Boltzmann distribution over the landscape;
// with noise = 0 it is plain gradient descent.
package langevin

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/veridyne/twinsampler/internal/gradient"
	"github.com/veridyne/twinsampler/internal/numeric"
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region sampler

// Sampler runs a fixed number of Langevin steps. Termination is purely
// step-count based — there is no convergence check, since energy
// landscapes need not be convex. Each call owns its own state copy.
type Sampler struct {
	LR      float64 // step size applied to the weighted gradient
	Noise   float64 // scale of the injected N(0,1) noise; 0 disables it
	Backend numeric.Backend
	Grads   gradient.Resolver
}

func (Sampler) Name() string { return "langevin" }

// #endregion sampler

// #region sample

// Sample records the initial state as step 0 and one point per iteration
// after that. On cancellation, shape violation, or divergence the partial
// trajectory is sealed and returned together with the error.
func (s Sampler) Sample(ctx context.Context, p prior.EnergyPrior, initial state.State, steps int, rng *rand.Rand) (*trajectory.Trajectory, error) {
	info := p.Info()
	w := info.Weight
	if w == 0 {
		w = 1
	}

	traj := trajectory.New(info.Key(), s.Name())
	cur := initial.Clone()

	e, err := p.Energy(cur)
	if err != nil {
		traj.Seal()
		return traj, fmt.Errorf("langevin: initial energy: %w", err)
	}
	if !numeric.Finite(e) {
		traj.Seal()
		return traj, &numeric.DivergenceError{Step: 0, Quantity: "energy"}
	}
	if err := traj.Append(0, w*e, cur); err != nil {
		return traj, err
	}

	for step := 1; step <= steps; step++ {
		select {
		case <-ctx.Done():
			traj.Seal()
			return traj, ctx.Err()
		default:
		}

		grad, src, err := s.Grads.Gradient(p, cur)
		if err != nil {
			traj.Seal()
			return traj, err
		}
		traj.SetMeta("gradient_source", string(src))

		for _, field := range cur.Fields() {
			vec := cur[field]
			if err := s.Backend.AddScaled(vec, -s.LR*w, grad[field]); err != nil {
				traj.Seal()
				return traj, err
			}
			if s.Noise > 0 {
				noise := s.Backend.Normal(rng, len(vec))
				if err := s.Backend.AddScaled(vec, s.Noise, noise); err != nil {
					traj.Seal()
					return traj, err
				}
			}
		}

		e, err := p.Energy(cur)
		if err != nil {
			traj.Seal()
			return traj, err
		}
		if !numeric.Finite(e) {
			traj.Seal()
			return traj, &numeric.DivergenceError{Step: step, Quantity: "energy"}
		}
		if !cur.IsFinite() {
			traj.Seal()
			return traj, &numeric.DivergenceError{Step: step, Quantity: "state"}
		}
		if err := traj.Append(step, w*e, cur); err != nil {
			return traj, err
		}
	}

	traj.Seal()
	return traj, nil
}

// #endregion sample

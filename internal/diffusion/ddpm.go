package diffusion

import (
	"context"
	"math"
	"math/rand"

	"github.com/veridyne/twinsampler/internal/numeric"
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region ddpm

// DDPM is ancestral reverse sampling: the deterministic denoise target
// plus fresh per-step Gaussian noise scaled by the schedule's posterior
// deviation. NoiseScale rescales that injected noise; 0 means 1.
type DDPM struct {
	Schedule   Schedule
	Backend    numeric.Backend
	Strategy   DenoiseStrategy
	NoiseScale float64
}

func (DDPM) Name() string { return "ddpm" }

// Sample corrupts initial to x_T, then denoises stochastically to t=0.
func (d DDPM) Sample(ctx context.Context, p prior.EnergyPrior, initial state.State, steps int, rng *rand.Rand) (*trajectory.Trajectory, error) {
	noiseScale := d.NoiseScale
	if noiseScale == 0 {
		noiseScale = 1
	}

	c := newChain(d.Name(), p, d.Schedule, d.Backend, steps, rng)
	c.traj.SetMeta("strategy", d.Strategy.Name())
	if traj, err := c.init(initial); err != nil {
		return traj, err
	}

	return c.run(ctx, func(es EnergyState) (state.State, error) {
		score, src, err := d.Strategy.Score(p, es)
		if err != nil {
			return nil, err
		}
		c.traj.SetMeta("gradient_source", string(src))

		x0 := predictX0(es, score)
		prev := d.Schedule.At(es.T-1, c.total)
		next := ddimTarget(es, prev, x0)

		std := noiseScale * posteriorStd(es.Coeffs, prev)
		if std > 0 {
			for _, field := range next.Fields() {
				vec := next[field]
				noise := d.Backend.Normal(rng, len(vec))
				for i := range vec {
					vec[i] += std * noise[i]
				}
			}
		}
		return next, nil
	})
}

// posteriorStd is the ancestral step's noise deviation:
// σ̃_t = √(β_t · σ_{t-1}² / σ_t²), with β_t = 1 − ᾱ_t/ᾱ_{t-1}. It vanishes
// as t→1, so the final steps inject almost no noise.
func posteriorStd(cur, prev Coeffs) float64 {
	if prev.Alpha <= 0 || cur.Sigma <= 0 {
		return 0
	}
	beta := 1 - cur.Alpha/prev.Alpha
	if beta < 0 {
		beta = 0
	}
	ratio := (prev.Sigma * prev.Sigma) / (cur.Sigma * cur.Sigma)
	return math.Sqrt(beta * ratio)
}

// #endregion ddpm

package diffusion

import (
	"context"
	"math/rand"

	"github.com/veridyne/twinsampler/internal/numeric"
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region ddim

// DDIM is the deterministic reverse sampler: the rng is consumed only by
// the initial forward corruption, so identical seed and config reproduce
// the trajectory bit for bit.
type DDIM struct {
	Schedule Schedule
	Backend  numeric.Backend
	Strategy DenoiseStrategy
}

func (DDIM) Name() string { return "ddim" }

// Sample corrupts initial to x_T, then denoises deterministically down to
// t=0.
func (d DDIM) Sample(ctx context.Context, p prior.EnergyPrior, initial state.State, steps int, rng *rand.Rand) (*trajectory.Trajectory, error) {
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
		return ddimTarget(es, prev, x0), nil
	})
}

// #endregion ddim

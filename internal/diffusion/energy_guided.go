package diffusion

import (
	"context"
	"math"
	"math/rand"

	"github.com/veridyne/twinsampler/internal/gradient"
	"github.com/veridyne/twinsampler/internal/numeric"
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region energy-guided

// EnergyGuided blends the strategy's denoising direction with the prior's
// energy gradient: direction = (1−λ)·denoise + λ·(−w·∇E), λ = Guidance ∈
// [0, 1]. λ=0 is plain DDIM stepping; λ=1 follows the energy landscape
// alone. When the schedule carries a temperature (boltzmann), each
// proposed step additionally passes a Metropolis acceptance test, so
// implausible moves are rejected with probability growing as the
// temperature falls.
type EnergyGuided struct {
	Schedule Schedule
	Backend  numeric.Backend
	Strategy DenoiseStrategy
	Guidance float64
	Grads    gradient.Resolver
}

func (EnergyGuided) Name() string { return "energy_guided" }

// Sample corrupts initial to x_T, then denoises with energy guidance.
func (d EnergyGuided) Sample(ctx context.Context, p prior.EnergyPrior, initial state.State, steps int, rng *rand.Rand) (*trajectory.Trajectory, error) {
	c := newChain(d.Name(), p, d.Schedule, d.Backend, steps, rng)
	c.traj.SetMeta("strategy", d.Strategy.Name())
	if traj, err := c.init(initial); err != nil {
		return traj, err
	}

	temps, _ := d.Schedule.(TemperatureSchedule)
	guide := GradientScore{Grads: d.Grads}

	return c.run(ctx, func(es EnergyState) (state.State, error) {
		score, src, err := d.Strategy.Score(p, es)
		if err != nil {
			return nil, err
		}
		c.traj.SetMeta("gradient_source", string(src))

		// The guidance signal is always the energy-gradient proxy, even
		// when the base denoise direction comes from another strategy.
		guidance := score
		if d.Strategy.Name() != guide.Name() {
			guidance, _, err = guide.Score(p, es)
			if err != nil {
				return nil, err
			}
		}

		x0 := predictX0(es, score)
		prev := d.Schedule.At(es.T-1, c.total)
		base := ddimTarget(es, prev, x0)

		lambda := d.Guidance
		sig2 := es.Coeffs.Sigma * es.Coeffs.Sigma
		next := es.Fields.Clone()
		for _, field := range next.Fields() {
			vec := next[field]
			bv := base[field]
			gv := guidance[field]
			for i := range vec {
				dirDiff := bv[i] - vec[i]
				vec[i] += (1-lambda)*dirDiff + lambda*sig2*gv[i]
			}
		}

		if temps != nil {
			accepted, err := d.accept(p, es, next, temps.Temperature(es.T, c.total), rng)
			if err != nil {
				return nil, err
			}
			if !accepted {
				// Rejected moves keep the current fields; t still advances.
				return es.Fields.Clone(), nil
			}
		}
		return next, nil
	})
}

// accept applies the Metropolis criterion at temperature tau: downhill
// moves always pass, uphill moves pass with probability exp(−ΔE/τ).
func (d EnergyGuided) accept(p prior.EnergyPrior, es EnergyState, candidate state.State, tau float64, rng *rand.Rand) (bool, error) {
	eCur, err := weightedEnergy(p, es.Fields)
	if err != nil {
		return false, err
	}
	eNext, err := weightedEnergy(p, candidate)
	if err != nil {
		return false, err
	}
	if !numeric.Finite(eNext) {
		return false, nil
	}
	delta := eNext - eCur
	if delta <= 0 || tau <= 0 {
		return delta <= 0, nil
	}
	return rng.Float64() < math.Exp(-delta/tau), nil
}

// #endregion energy-guided

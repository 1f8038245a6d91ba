package diffusion

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/veridyne/twinsampler/internal/numeric"
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// ErrTerminalChain indicates an attempt to step a chain whose trajectory
// was already returned.
var ErrTerminalChain = errors.New("diffusion: terminal chain cannot be re-stepped")

// #region chain

// chain is the shared reverse-diffusion driver. It owns the per-call
// EnergyState and Trajectory, walks t from T down to 0 one step at a
// time, records every step, and enforces the step state machine plus the
// divergence and cancellation checks all reverse samplers share.
type chain struct {
	prior   prior.EnergyPrior
	sched   Schedule
	backend numeric.Backend
	total   int
	rng     *rand.Rand

	ph   phase
	cur  EnergyState
	traj *trajectory.Trajectory
}

func newChain(sampler string, p prior.EnergyPrior, sched Schedule, backend numeric.Backend, steps int, rng *rand.Rand) *chain {
	t := trajectory.New(p.Info().Key(), sampler)
	t.SetMeta("scheduler", sched.Name())
	return &chain{
		prior:   p,
		sched:   sched,
		backend: backend,
		total:   steps,
		rng:     rng,
		ph:      phaseInitialized,
		traj:    t,
	}
}

// #endregion chain

// #region init

// init forward-corrupts the caller's seed state to x_T and records it as
// step 0. The seed's energy is checked immediately so a pathological
// initial state surfaces as a step-0 divergence, not a NaN trail.
func (c *chain) init(initial state.State) (*trajectory.Trajectory, error) {
	fwd := Forward{Schedule: c.sched, Backend: c.backend}
	x := fwd.Corrupt(initial, c.total, c.total, c.rng)
	c.cur = EnergyState{Fields: x, T: c.total, Coeffs: c.sched.At(c.total, c.total)}

	e, err := weightedEnergy(c.prior, x)
	if err != nil {
		c.traj.Seal()
		return c.traj, err
	}
	if !numeric.Finite(e) || !x.IsFinite() {
		c.traj.Seal()
		return c.traj, &numeric.DivergenceError{Step: 0, Quantity: "energy"}
	}
	if err := c.traj.Append(0, e, x); err != nil {
		return c.traj, err
	}
	c.ph = phaseStepping
	return nil, nil
}

// #endregion init

// #region run

// stepFunc computes the next fields from the current energy state. It
// must not mutate es.Fields.
type stepFunc func(es EnergyState) (state.State, error)

// run drives the chain to t=0. On cancellation, shape violation, or
// divergence the partial trajectory is sealed and returned together with
// the error — progress is never silently lost.
func (c *chain) run(ctx context.Context, step stepFunc) (*trajectory.Trajectory, error) {
	if c.ph != phaseStepping {
		return c.traj, ErrTerminalChain
	}

	ordinal := 1
	for t := c.total; t >= 1; t-- {
		select {
		case <-ctx.Done():
			c.seal()
			return c.traj, ctx.Err()
		default:
		}

		next, err := step(c.cur)
		if err != nil {
			c.seal()
			return c.traj, err
		}

		// Exactly one timestep per transition.
		c.cur = EnergyState{Fields: next, T: t - 1, Coeffs: c.sched.At(t-1, c.total)}

		e, err := weightedEnergy(c.prior, next)
		if err != nil {
			c.seal()
			return c.traj, err
		}
		if !numeric.Finite(e) {
			c.seal()
			return c.traj, &numeric.DivergenceError{Step: ordinal, Quantity: "energy"}
		}
		if !next.IsFinite() {
			c.seal()
			return c.traj, &numeric.DivergenceError{Step: ordinal, Quantity: "state"}
		}
		if err := c.traj.Append(ordinal, e, next); err != nil {
			return c.traj, err
		}
		ordinal++
	}

	c.seal()
	return c.traj, nil
}

func (c *chain) seal() {
	c.ph = phaseTerminal
	c.traj.Seal()
}

// #endregion run

// #region step-math

// weightedEnergy scales the prior's raw energy by its weight; recorded
// energies are always weight-scaled so traces compare across priors.
func weightedEnergy(p prior.EnergyPrior, s state.State) (float64, error) {
	e, err := p.Energy(s)
	if err != nil {
		return 0, err
	}
	w := p.Info().Weight
	if w == 0 {
		w = 1
	}
	return w * e, nil
}

// predictX0 estimates the clean state from the noisy one via the score:
// x̂₀ = (x_t + σ_t²·s) / √ᾱ_t.
func predictX0(es EnergyState, score prior.Gradient) state.State {
	sqrtAlpha := math.Sqrt(es.Coeffs.Alpha)
	sig2 := es.Coeffs.Sigma * es.Coeffs.Sigma

	x0 := es.Fields.Clone()
	for _, field := range x0.Fields() {
		vec := x0[field]
		sv := score[field]
		for i := range vec {
			vec[i] = (vec[i] + sig2*sv[i]) / sqrtAlpha
		}
	}
	return x0
}

// ddimTarget computes the deterministic reverse step toward the previous
// timestep's coefficients: x_{t-1} = √ᾱ_{t-1}·x̂₀ + σ_{t-1}·ε̂, with the
// noise estimate ε̂ recovered from x_t and x̂₀.
func ddimTarget(es EnergyState, prev Coeffs, x0 state.State) state.State {
	sqrtAlpha := math.Sqrt(es.Coeffs.Alpha)
	sqrtAlphaPrev := math.Sqrt(prev.Alpha)

	out := es.Fields.Clone()
	for _, field := range out.Fields() {
		vec := out[field]
		clean := x0[field]
		for i := range vec {
			var epsHat float64
			if es.Coeffs.Sigma > 0 {
				epsHat = (vec[i] - sqrtAlpha*clean[i]) / es.Coeffs.Sigma
			}
			vec[i] = sqrtAlphaPrev*clean[i] + prev.Sigma*epsHat
		}
	}
	return out
}

// #endregion step-math

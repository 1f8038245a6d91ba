package diffusion

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownSchedule indicates a scheduler name nothing is registered
// under. Selection is explicit; there is no silent default for a name we
// do not recognize.
var ErrUnknownSchedule = errors.New("diffusion: unknown scheduler")

// alphaFloor keeps ᾱ strictly positive so the reverse samplers never
// divide by a zero signal level at t=T.
const alphaFloor = 1e-4

// #region coeffs

// Coeffs is the schedule value at one timestep: Alpha is the cumulative
// signal level ᾱ_t and Sigma = √(1−ᾱ_t) the matching noise level, so that
// forward corruption is x_t = √ᾱ_t·x₀ + σ_t·ε.
type Coeffs struct {
	Alpha float64
	Sigma float64
}

func coeffsFromAlpha(alpha float64) Coeffs {
	if alpha < alphaFloor {
		alpha = alphaFloor
	}
	if alpha > 1 {
		alpha = 1
	}
	return Coeffs{Alpha: alpha, Sigma: math.Sqrt(1 - alpha)}
}

// #endregion coeffs

// #region schedule

// Schedule is a pure, stateless map from a timestep to its coefficients.
// Alpha decreases monotonically from ≈1 at t=0 to ≈0 at t=total; every
// scheduler variant answers the same query so samplers stay
// scheduler-agnostic.
type Schedule interface {
	Name() string
	At(t, total int) Coeffs
}

// TemperatureSchedule is the extra query the Boltzmann scheduler answers:
// the sampling temperature at a timestep, used for energy-weighted
// acceptance in guided sampling.
type TemperatureSchedule interface {
	Temperature(t, total int) float64
}

// NewSchedule resolves a scheduler by config name. Empty selects linear.
func NewSchedule(name string) (Schedule, error) {
	switch name {
	case "", "linear":
		return Linear{}, nil
	case "cosine":
		return Cosine{}, nil
	case "boltzmann":
		return Boltzmann{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchedule, name)
	}
}

// #endregion schedule

// #region linear

// Linear interpolates ᾱ linearly from 1 down to the floor.
type Linear struct{}

func (Linear) Name() string { return "linear" }

func (Linear) At(t, total int) Coeffs {
	frac := stepFrac(t, total)
	return coeffsFromAlpha(alphaFloor + (1-alphaFloor)*(1-frac))
}

// #endregion linear

// #region cosine

// Cosine is the squared-cosine variance curve: slow corruption near both
// endpoints, fastest in the middle. Offset 0 means the conventional 0.008.
type Cosine struct {
	Offset float64
}

func (Cosine) Name() string { return "cosine" }

func (c Cosine) At(t, total int) Coeffs {
	s := c.Offset
	if s <= 0 {
		s = 0.008
	}
	f := func(u float64) float64 {
		v := math.Cos((u + s) / (1 + s) * math.Pi / 2)
		return v * v
	}
	return coeffsFromAlpha(f(stepFrac(t, total)) / f(0))
}

// #endregion cosine

// #region boltzmann

// Boltzmann maps the timestep to a sampling temperature on a geometric
// ramp from TMin at t=0 to TMax at t=total, and derives the equivalent
// (ᾱ, σ) pair as ᾱ_t = (1+τ₀)/(1+τ_t) so ᾱ₀ = 1. Zero fields mean the
// defaults (0.01, 100).
type Boltzmann struct {
	TMin float64
	TMax float64
}

func (Boltzmann) Name() string { return "boltzmann" }

func (b Boltzmann) bounds() (lo, hi float64) {
	lo, hi = b.TMin, b.TMax
	if lo <= 0 {
		lo = 0.01
	}
	if hi <= lo {
		hi = 100
	}
	return lo, hi
}

// Temperature returns τ_t.
func (b Boltzmann) Temperature(t, total int) float64 {
	lo, hi := b.bounds()
	return lo * math.Pow(hi/lo, stepFrac(t, total))
}

func (b Boltzmann) At(t, total int) Coeffs {
	lo, _ := b.bounds()
	tau := b.Temperature(t, total)
	return coeffsFromAlpha((1 + lo) / (1 + tau))
}

// #endregion boltzmann

func stepFrac(t, total int) float64 {
	if total <= 0 {
		return 0
	}
	if t < 0 {
		t = 0
	}
	if t > total {
		t = total
	}
	return float64(t) / float64(total)
}
